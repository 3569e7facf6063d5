package models

// ProductCategory is a kind of goods, e.g. "Dairy" or "Household".
type ProductCategory struct {
	ID   int64
	Name string
}

// Product is a named good, e.g. "Milk". It always belongs to one category.
type Product struct {
	ID         int64
	Name       string
	CategoryID int64

	// Category is populated by reads that join the category.
	Category *ProductCategory
}
