package generator

// Ecommerce fake-data provider: product names assembled from category,
// adjective and type word lists.

var productCategories = []string{
	"Electronics",
	"Clothing",
	"Home & Kitchen",
	"Books",
	"Beauty",
	"Sports",
	"Toys",
	"Automotive",
	"Health",
	"Pet Supplies",
}

var productAdjectives = []string{
	"Premium",
	"Deluxe",
	"Essential",
	"Professional",
	"Ultra",
	"Smart",
	"Portable",
	"Wireless",
	"Digital",
	"Organic",
	"Vintage",
	"Modern",
	"Lightweight",
	"Durable",
	"Advanced",
}

var productTypes = map[string][]string{
	"Electronics": {
		"Headphones", "Smartphone", "Laptop", "Tablet", "Camera",
		"Smartwatch", "Speaker", "TV", "Monitor", "Mouse", "Keyboard",
	},
	"Clothing": {
		"T-Shirt", "Jeans", "Dress", "Jacket", "Sweater", "Socks",
		"Hat", "Scarf", "Gloves", "Shoes", "Sneakers",
	},
	"Home & Kitchen": {
		"Blender", "Coffee Maker", "Toaster", "Microwave", "Sofa",
		"Bed", "Table", "Chair", "Lamp", "Pillow", "Blanket",
	},
	"Books": {
		"Novel", "Cookbook", "Biography", "Textbook", "Guide",
		"History Book", "Dictionary", "Comic Book", "Magazine", "Journal",
	},
	"Beauty": {
		"Lipstick", "Foundation", "Mascara", "Moisturizer", "Shampoo",
		"Conditioner", "Body Wash", "Face Mask", "Perfume",
	},
	"Sports": {
		"Yoga Mat", "Dumbbells", "Tennis Racket", "Basketball", "Football",
		"Baseball Glove", "Bicycle", "Skateboard", "Running Shoes",
	},
	"Toys": {
		"Action Figure", "Doll", "Board Game", "Puzzle", "Plush Toy",
		"Remote Control Car", "Building Blocks", "Art Set",
	},
	"Automotive": {
		"Car Seat", "Windshield Wipers", "Floor Mats", "Car Charger",
		"Jump Starter", "Tool Kit", "Air Freshener",
	},
	"Health": {
		"Vitamins", "Supplements", "First Aid Kit", "Thermometer",
		"Blood Pressure Monitor", "Heating Pad", "Massager",
	},
	"Pet Supplies": {
		"Dog Food", "Cat Litter", "Pet Bed", "Pet Toy", "Pet Carrier",
		"Leash", "Collar", "Pet Shampoo",
	},
}

// ecommerceProductName draws a product name, occasionally including the
// category.
func ecommerceProductName(src *Source) string {
	category := productCategories[src.Intn(len(productCategories))]
	adjective := productAdjectives[src.Intn(len(productAdjectives))]
	types := productTypes[category]
	productType := types[src.Intn(len(types))]

	if src.Float64() < 0.3 {
		return adjective + " " + category + " " + productType
	}
	return adjective + " " + productType
}
