package synthetic

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cast"
)

// fakerSource serialises access to a single gofakeit instance.
type fakerSource struct {
	mu sync.Mutex
	f  *gofakeit.Faker
}

func (s *fakerSource) do(fn func(f *gofakeit.Faker) interface{}) interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.f)
}

// NewDefaultRegistry builds the faker.* tree. A zero seed draws a random one.
func NewDefaultRegistry(seed int64) *Registry {
	src := &fakerSource{f: gofakeit.New(uint64(seed))}
	r := NewRegistry()

	simple := func(path string, fn func(f *gofakeit.Faker) interface{}) {
		r.Register(path, func(args []interface{}) (interface{}, error) {
			return src.do(fn), nil
		})
	}

	simple("faker.person.firstName", func(f *gofakeit.Faker) interface{} { return f.FirstName() })
	simple("faker.person.lastName", func(f *gofakeit.Faker) interface{} { return f.LastName() })
	simple("faker.person.fullName", func(f *gofakeit.Faker) interface{} { return f.Name() })

	simple("faker.internet.email", func(f *gofakeit.Faker) interface{} { return f.Email() })
	simple("faker.internet.userName", func(f *gofakeit.Faker) interface{} { return f.Username() })
	simple("faker.internet.url", func(f *gofakeit.Faker) interface{} { return f.URL() })
	simple("faker.internet.ipv4", func(f *gofakeit.Faker) interface{} { return f.IPv4Address() })

	simple("faker.string.uuid", func(f *gofakeit.Faker) interface{} { return f.UUID() })
	r.Register("faker.string.alpha", func(args []interface{}) (interface{}, error) {
		n, err := lengthArg(args, 10)
		if err != nil {
			return nil, err
		}
		return src.do(func(f *gofakeit.Faker) interface{} { return f.LetterN(uint(n)) }), nil
	})
	r.Register("faker.string.numeric", func(args []interface{}) (interface{}, error) {
		n, err := lengthArg(args, 6)
		if err != nil {
			return nil, err
		}
		return src.do(func(f *gofakeit.Faker) interface{} { return f.DigitN(uint(n)) }), nil
	})

	r.Register("faker.number.int", func(args []interface{}) (interface{}, error) {
		lo, hi, err := rangeArgs(args, 0, 1000)
		if err != nil {
			return nil, err
		}
		return src.do(func(f *gofakeit.Faker) interface{} { return f.IntRange(lo, hi) }), nil
	})

	simple("faker.phone.number", func(f *gofakeit.Faker) interface{} { return f.Phone() })
	simple("faker.company.name", func(f *gofakeit.Faker) interface{} { return f.Company() })

	simple("faker.location.city", func(f *gofakeit.Faker) interface{} { return f.City() })
	simple("faker.location.country", func(f *gofakeit.Faker) interface{} { return f.Country() })
	simple("faker.location.streetAddress", func(f *gofakeit.Faker) interface{} { return f.Street() })
	simple("faker.location.zipCode", func(f *gofakeit.Faker) interface{} { return f.Zip() })

	simple("faker.lorem.word", func(f *gofakeit.Faker) interface{} { return f.Word() })
	r.Register("faker.lorem.sentence", func(args []interface{}) (interface{}, error) {
		n, err := lengthArg(args, 6)
		if err != nil {
			return nil, err
		}
		return src.do(func(f *gofakeit.Faker) interface{} {
			words := make([]string, n)
			for i := range words {
				words[i] = f.Word()
			}
			s := strings.Join(words, " ")
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:] + "."
		}), nil
	})

	simple("faker.datatype.boolean", func(f *gofakeit.Faker) interface{} { return f.Bool() })

	r.Register("faker.date.past", func(args []interface{}) (interface{}, error) {
		years, err := lengthArg(args, 1)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		return src.do(func(f *gofakeit.Faker) interface{} {
			return f.DateRange(now.AddDate(-years, 0, 0), now).UTC().Format(time.RFC3339)
		}), nil
	})
	r.Register("faker.date.recent", func(args []interface{}) (interface{}, error) {
		days, err := lengthArg(args, 1)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		return src.do(func(f *gofakeit.Faker) interface{} {
			return f.DateRange(now.AddDate(0, 0, -days), now).UTC().Format(time.RFC3339)
		}), nil
	})

	r.Register("faker.finance.amount", func(args []interface{}) (interface{}, error) {
		lo, hi, err := rangeArgs(args, 0, 1000)
		if err != nil {
			return nil, err
		}
		return src.do(func(f *gofakeit.Faker) interface{} {
			return fmt.Sprintf("%.2f", f.Price(float64(lo), float64(hi)))
		}), nil
	})

	return r
}

// maxCount bounds string lengths, word counts and year/day spans.
const maxCount = 10000

// lengthArg reads an optional count in [0, maxCount], either as a bare number
// or as {"length": n} / {"count": n}.
func lengthArg(args []interface{}, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	raw := args[0]
	if m, ok := raw.(map[string]interface{}); ok {
		switch {
		case m["length"] != nil:
			raw = m["length"]
		case m["count"] != nil:
			raw = m["count"]
		default:
			return def, nil
		}
	}
	n, err := cast.ToIntE(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: expected non-negative count, got %v", ErrInvalidArgs, args[0])
	}
	if n > maxCount {
		return 0, fmt.Errorf("%w: count %d exceeds %d", ErrInvalidArgs, n, maxCount)
	}
	return n, nil
}

// rangeArgs accepts (min, max), (max) or ({"min": a, "max": b}).
func rangeArgs(args []interface{}, defLo, defHi int) (int, int, error) {
	lo, hi := defLo, defHi
	var err error
	switch {
	case len(args) == 0:
	case len(args) == 1:
		if m, ok := args[0].(map[string]interface{}); ok {
			if v, ok := m["min"]; ok {
				if lo, err = cast.ToIntE(v); err != nil {
					return 0, 0, fmt.Errorf("%w: min %v", ErrInvalidArgs, v)
				}
			}
			if v, ok := m["max"]; ok {
				if hi, err = cast.ToIntE(v); err != nil {
					return 0, 0, fmt.Errorf("%w: max %v", ErrInvalidArgs, v)
				}
			}
		} else if hi, err = cast.ToIntE(args[0]); err != nil {
			return 0, 0, fmt.Errorf("%w: max %v", ErrInvalidArgs, args[0])
		}
	default:
		if lo, err = cast.ToIntE(args[0]); err != nil {
			return 0, 0, fmt.Errorf("%w: min %v", ErrInvalidArgs, args[0])
		}
		if hi, err = cast.ToIntE(args[1]); err != nil {
			return 0, 0, fmt.Errorf("%w: max %v", ErrInvalidArgs, args[1])
		}
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("%w: min %d greater than max %d", ErrInvalidArgs, lo, hi)
	}
	return lo, hi, nil
}
