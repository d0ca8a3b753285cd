// Package seed generates a deterministic demo catalog so the service is
// searchable out of the box without an upstream product feed.
package seed

import (
	"fmt"
	"math/rand"

	"github.com/gopikant21/jumbotail/internal/domain"
	"github.com/gopikant21/jumbotail/internal/service"
)

// fixed seed keeps the generated catalog stable across restarts.
const randSeed = 42

type brandLine struct {
	brand    string
	category string
	sub      string
	noun     string
	minPrice float64
	maxPrice float64
}

var lines = []brandLine{
	{"Samsung", "Electronics", "Smartphones", "Galaxy Smartphone", 8999, 79999},
	{"Apple", "Electronics", "Smartphones", "iPhone", 39999, 149999},
	{"Xiaomi", "Electronics", "Smartphones", "Redmi Phone", 6999, 24999},
	{"Realme", "Electronics", "Smartphones", "Narzo Phone", 7499, 19999},
	{"Samsung", "Electronics", "Laptops", "Galaxy Book Laptop", 45999, 109999},
	{"HP", "Electronics", "Laptops", "Pavilion Laptop", 35999, 89999},
	{"Dell", "Electronics", "Laptops", "Inspiron Laptop", 38999, 94999},
	{"Boat", "Electronics", "Audio", "Wireless Headphone", 799, 4999},
	{"Sony", "Electronics", "Audio", "Noise Cancelling Headphone", 7999, 29999},
	{"JBL", "Electronics", "Audio", "Bluetooth Speaker", 1499, 12999},
	{"Nike", "Fashion", "Footwear", "Running Shoes", 2499, 12999},
	{"Adidas", "Fashion", "Footwear", "Sports Sneaker", 1999, 11999},
	{"Bata", "Fashion", "Footwear", "Casual Shoes", 699, 2999},
	{"Levis", "Fashion", "Apparel", "Denim Jeans", 1299, 4999},
	{"Allen Solly", "Fashion", "Apparel", "Cotton Shirt", 899, 2799},
	{"Titan", "Fashion", "Watches", "Analog Watch", 1999, 14999},
	{"Fastrack", "Fashion", "Watches", "Digital Watch", 999, 4999},
	{"Ray-Ban", "Fashion", "Eyewear", "Aviator Sunglasses", 4999, 11999},
	{"LG", "Appliances", "Refrigerators", "Double Door Refrigerator", 18999, 54999},
	{"Whirlpool", "Appliances", "Washing Machines", "Front Load Washing Machine", 16999, 42999},
	{"Prestige", "Home", "Kitchen", "Induction Cooktop", 1499, 4999},
	{"Milton", "Home", "Kitchen", "Steel Water Bottle", 299, 1199},
}

var adjectives = []string{"Pro", "Max", "Lite", "Plus", "Ultra", "Classic", "Prime", "Neo"}

var tagPool = []string{"bestseller", "new-arrival", "festive-offer", "top-rated", "budget-pick", "premium"}

// Products generates count deterministic products spanning the brand lines.
func Products(count int) []service.ProductInput {
	rng := rand.New(rand.NewSource(randSeed))

	inputs := make([]service.ProductInput, 0, count)
	for i := 0; i < count; i++ {
		line := lines[i%len(lines)]
		adj := adjectives[rng.Intn(len(adjectives))]

		price := line.minPrice + rng.Float64()*(line.maxPrice-line.minPrice)
		price = float64(int(price/10) * 10)
		mrp := price * (1 + 0.05 + rng.Float64()*0.35)
		mrp = float64(int(mrp/10) * 10)

		rating := 2.5 + rng.Float64()*2.5
		rating = float64(int(rating*10)) / 10

		unitsSold := rng.Int63n(50000)
		returnRate := rng.Float64() * 0.25
		profitMargin := 0.05 + rng.Float64()*0.45

		in := service.ProductInput{
			Title:       fmt.Sprintf("%s %s %s %d", line.brand, line.noun, adj, 100+i),
			Description: fmt.Sprintf("%s %s by %s with 1 year warranty and free delivery", adj, line.noun, line.brand),
			Category:    line.category,
			Subcategory: line.sub,
			Brand:       line.brand,
			Model:       fmt.Sprintf("%s-%d", adj, 100+i),
			Price:       price,
			MRP:         mrp,
			Currency:    "INR",
			Rating:      rating,
			RatingCount: rng.Intn(20000),
			Stock:       rng.Intn(200),
			Metadata: map[string]string{
				"color":    pick(rng, "black", "white", "blue", "silver", "red"),
				"warranty": pick(rng, "6 months", "1 year", "2 years"),
			},
			Analytics: &domain.Analytics{
				UnitsSold:    &unitsSold,
				ReturnRate:   &returnRate,
				ProfitMargin: &profitMargin,
				IsTrending:   rng.Intn(10) == 0,
				IsOnSale:     rng.Intn(5) == 0,
			},
			Tags:   []string{tagPool[rng.Intn(len(tagPool))]},
			Images: []string{fmt.Sprintf("https://img.jumbotail.dev/p/%d/main.jpg", 100+i)},
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func pick(rng *rand.Rand, options ...string) string {
	return options[rng.Intn(len(options))]
}
