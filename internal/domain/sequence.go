package domain

// FetchPair is one directory of the storage repository.
type FetchPair struct {
	Brand    Brand
	Category Category
}

func (p FetchPair) String() string {
	return p.Brand.Segment() + "/" + p.Category.Segment()
}

// FetchSequence lists every (brand, category) directory fetched per
// assembly run.
var FetchSequence = []FetchPair{
	{BrandPaik, CategoryDessert},
	{BrandPaik, CategoryCoffeeHot},
	{BrandPaik, CategoryCoffeeIce},
	{BrandPaik, CategoryBeverageHot},
	{BrandPaik, CategoryBeverageIce},
	{BrandTheVenti, CategoryDessert},
	{BrandTheVenti, CategoryCoffeeHot},
	{BrandTheVenti, CategoryCoffeeIce},
	{BrandTheVenti, CategoryBeverageHot},
	{BrandTheVenti, CategoryBeverageIce},
	{BrandMega, CategoryDessert},
	{BrandMega, CategoryCoffeeHot},
	{BrandMega, CategoryCoffeeIce},
	{BrandMega, CategoryBeverageHot},
	{BrandMega, CategoryBeverageIce},
}
