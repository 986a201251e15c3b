// Package nutrition maps free-text food labels onto approximate per-serving
// nutrition values.
package nutrition

// Facts are the nutrition values of one serving.
type Facts struct {
	Calories int `json:"calories"`
	ProteinG int `json:"protein"`
	CarbsG   int `json:"carbs"`
	FatsG    int `json:"fats"`
}

// Entry is one keyword in the nutrition table.
type Entry struct {
	Keyword string `json:"keyword"`
	Facts
}

// Default is returned when no keyword matches.
var Default = Facts{Calories: 200, ProteinG: 10, CarbsG: 25, FatsG: 8}

// table order decides ties: the first matching keyword wins.
var table = []Entry{
	// Meats & proteins
	{"meat", Facts{250, 26, 0, 15}},
	{"chicken", Facts{239, 27, 0, 14}},
	{"fish", Facts{206, 22, 0, 12}},
	{"steak", Facts{271, 25, 0, 19}},
	{"pork", Facts{242, 27, 0, 14}},
	{"beef", Facts{250, 26, 0, 15}},

	// Fast food
	{"pizza", Facts{266, 11, 33, 10}},
	{"burger", Facts{295, 17, 24, 14}},
	{"hamburger", Facts{295, 17, 24, 14}},
	{"sandwich", Facts{250, 12, 30, 8}},
	{"hot dog", Facts{290, 10, 23, 18}},
	{"hotdog", Facts{290, 10, 23, 18}},
	{"taco", Facts{226, 9, 21, 12}},
	{"burrito", Facts{206, 10, 32, 4}},
	{"fries", Facts{312, 4, 41, 15}},
	{"french fries", Facts{312, 4, 41, 15}},

	// Pasta & rice
	{"pasta", Facts{158, 6, 31, 1}},
	{"spaghetti", Facts{158, 6, 31, 1}},
	{"noodle", Facts{138, 5, 26, 2}},
	{"ramen", Facts{436, 19, 66, 15}},
	{"rice", Facts{130, 3, 28, 0}},

	// Indian
	{"curry", Facts{180, 8, 20, 8}},
	{"biryani", Facts{450, 25, 55, 12}},
	{"naan", Facts{262, 8, 45, 5}},
	{"roti", Facts{106, 3, 21, 2}},
	{"bread", Facts{265, 9, 49, 3}},
	{"dal", Facts{116, 9, 20, 0}},
	{"samosa", Facts{308, 6, 32, 17}},

	// Asian
	{"sushi", Facts{140, 6, 28, 1}},
	{"dumpling", Facts{200, 8, 25, 7}},

	// Healthy
	{"salad", Facts{50, 3, 8, 2}},
	{"soup", Facts{90, 5, 12, 3}},
	{"vegetables", Facts{40, 2, 8, 0}},
	{"vegetable", Facts{40, 2, 8, 0}},

	// Fruit
	{"fruit", Facts{60, 1, 15, 0}},
	{"apple", Facts{52, 0, 14, 0}},
	{"banana", Facts{89, 1, 23, 0}},
	{"orange", Facts{47, 1, 12, 0}},

	// Desserts
	{"dessert", Facts{350, 4, 45, 18}},
	{"cake", Facts{350, 5, 50, 15}},
	{"ice cream", Facts{207, 4, 24, 11}},
	{"cookie", Facts{480, 6, 65, 22}},
	{"cookies", Facts{480, 6, 65, 22}},
	{"chocolate", Facts{535, 5, 60, 30}},
	{"donut", Facts{452, 5, 51, 25}},
	{"trifle", Facts{180, 3, 28, 6}},

	// Snacks
	{"chips", Facts{536, 6, 53, 34}},
	{"popcorn", Facts{387, 13, 78, 5}},

	// Breakfast
	{"egg", Facts{155, 13, 1, 11}},
	{"eggs", Facts{155, 13, 1, 11}},
	{"toast", Facts{265, 9, 49, 3}},
	{"pancake", Facts{227, 6, 28, 10}},
	{"waffle", Facts{291, 8, 38, 12}},

	// Beverages
	{"coffee", Facts{2, 0, 0, 0}},
	{"tea", Facts{1, 0, 0, 0}},
}

// Table returns a copy of the nutrition table in match order.
func Table() []Entry {
	out := make([]Entry, len(table))
	copy(out, table)
	return out
}
