package generator

import (
	"github.com/go-faker/faker/v4"
)

// FakerFunc is a named fake-value function invoked by the faker.<name>
// generator. Params carry the schema's keyword arguments; built-in fakers
// take none.
type FakerFunc func(params map[string]any) (any, error)

// defaultFakers returns the registry of built-in fake-value functions,
// addressed by the name that follows the "faker." prefix. The python-style
// snake_case names match what configurations spell.
func defaultFakers(src *Source) map[string]FakerFunc {
	plain := func(fn func() string) FakerFunc {
		return func(map[string]any) (any, error) { return fn(), nil }
	}

	fakers := map[string]FakerFunc{
		"name":         plain(func() string { return faker.Name() }),
		"first_name":   plain(func() string { return faker.FirstName() }),
		"last_name":    plain(func() string { return faker.LastName() }),
		"email":        plain(func() string { return faker.Email() }),
		"user_name":    plain(func() string { return faker.Username() }),
		"username":     plain(func() string { return faker.Username() }),
		"phone_number": plain(func() string { return faker.Phonenumber() }),
		"word":         plain(func() string { return faker.Word() }),
		"sentence":     plain(func() string { return faker.Sentence() }),
		"paragraph":    plain(func() string { return faker.Paragraph() }),
		"url":          plain(func() string { return faker.URL() }),
		"domain_name":  plain(func() string { return faker.DomainName() }),
		"ipv4":         plain(func() string { return faker.IPv4() }),
		"ipv6":         plain(func() string { return faker.IPv6() }),
		"uuid4":        plain(func() string { return faker.UUIDHyphenated() }),
		"date":         plain(func() string { return faker.Date() }),
		"time":         plain(func() string { return faker.TimeString() }),
		"timestamp":    plain(func() string { return faker.Timestamp() }),
		"currency":     plain(func() string { return faker.Currency() }),
		"cc_number":    plain(func() string { return faker.CCNumber() }),
	}

	// Domain pack. Both spellings resolve, with and without the provider
	// segment.
	productName := func(map[string]any) (any, error) { return ecommerceProductName(src), nil }
	fakers["product_name"] = productName
	fakers["ecommerce.product_name"] = productName

	return fakers
}
