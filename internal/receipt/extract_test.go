package receipt

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const sampleReceipt = `Here are the details extracted from the receipt:
**Restaurant Name:** ABC Diner
**Address:** 123 Main Street, Springfield, IL 62701
**Order Date and Time:** 03/15/2024, 7:45 PM
**Payment Method:** Visa ending in 4242
**Items Ordered:**
* 2 Cheeseburger - $8.99
* 1 Large Fries - $3.49
* 3 Iced Tea - $1.99
**Subtotal:** $10.50
**Tax:** $0.90
**Total Amount Paid:** $11.40`

var _ = Describe("Extract", func() {
	var (
		text string
		rec  Record
	)

	JustBeforeEach(func() {
		rec = Extract(text)
	})

	When("extracting a complete receipt", func() {
		BeforeEach(func() {
			text = Normalize(sampleReceipt)
		})

		It("reads the restaurant name", func() {
			Expect(rec.RestaurantName()).To(Equal(Known("ABC Diner")))
		})

		It("reads the address", func() {
			Expect(rec.RestaurantAddress().String()).To(Equal("123 Main Street, Springfield, IL 62701"))
		})

		It("reads the order date and time", func() {
			Expect(rec.OrderDateTime().String()).To(Equal("03/15/2024, 7:45 PM"))
		})

		It("reads the payment method", func() {
			Expect(rec.PaymentMethod().String()).To(Equal("Visa ending in 4242"))
		})

		It("reads the items in order", func() {
			items := rec.Items()
			Expect(items).To(HaveLen(3))
			Expect(items[0].Item).To(Equal("Cheeseburger"))
			Expect(items[0].Quantity).To(Equal(2))
			Expect(items[0].Price.Equal(dec("8.99"))).To(BeTrue())
			Expect(items[1].Item).To(Equal("Large Fries"))
			Expect(items[2].Item).To(Equal("Iced Tea"))
			Expect(items[2].Quantity).To(Equal(3))
		})

		It("reads the amounts as given", func() {
			Expect(rec.Subtotal().Equal(dec("10.50"))).To(BeTrue())
			Expect(rec.Tax().Equal(dec("0.90"))).To(BeTrue())
			Expect(rec.Total().Equal(dec("11.40"))).To(BeTrue())
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = ""
		})

		It("returns every field at its default", func() {
			fields := rec.Fields()
			Expect(fields).To(HaveLen(len(FieldNames)))
			for _, name := range FieldNames {
				Expect(fields).To(HaveKey(name))
			}
			Expect(fields[FieldRestaurantName]).To(Equal(Unknown))
			Expect(fields[FieldRestaurantAddress]).To(Equal(Unknown))
			Expect(fields[FieldOrderDateTime]).To(Equal(Unknown))
			Expect(fields[FieldPaymentMethod]).To(Equal(Unknown))
			Expect(rec.Items()).To(BeEmpty())
			Expect(rec.Subtotal().IsZero()).To(BeTrue())
			Expect(rec.Tax().IsZero()).To(BeTrue())
			Expect(rec.Total().IsZero()).To(BeTrue())
		})

		It("marks text fields as not found", func() {
			Expect(rec.RestaurantName().Found).To(BeFalse())
			Expect(rec.OrderDateTime().Found).To(BeFalse())
		})
	})

	When("labels use a different case", func() {
		BeforeEach(func() {
			text = "restaurant name: ABC Diner\nSUBTOTAL: 4.00"
		})

		It("still matches them", func() {
			Expect(rec.RestaurantName().String()).To(Equal("ABC Diner"))
			Expect(rec.Subtotal().Equal(dec("4"))).To(BeTrue())
		})
	})

	When("amounts are inconsistent", func() {
		BeforeEach(func() {
			text = "Subtotal: $10.00\nTax: $1.00\nTotal Amount Paid: $50.00"
		})

		It("keeps each amount as given", func() {
			Expect(rec.Subtotal().StringFixed(2)).To(Equal("10.00"))
			Expect(rec.Tax().StringFixed(2)).To(Equal("1.00"))
			Expect(rec.Total().StringFixed(2)).To(Equal("50.00"))
		})
	})

	When("an amount is malformed", func() {
		BeforeEach(func() {
			text = "Subtotal: $1.2.3\nTax: $0.90"
		})

		It("defaults only that amount", func() {
			Expect(rec.Subtotal().IsZero()).To(BeTrue())
			Expect(rec.Tax().StringFixed(2)).To(Equal("0.90"))
		})
	})

	When("only a plain Total label is present", func() {
		BeforeEach(func() {
			text = "Subtotal: $10.50\nTotal: $11.40"
		})

		It("reads the total without confusing it with the subtotal", func() {
			Expect(rec.Total().StringFixed(2)).To(Equal("11.40"))
			Expect(rec.Subtotal().StringFixed(2)).To(Equal("10.50"))
		})
	})

	When("the subtotal label is spaced", func() {
		BeforeEach(func() {
			text = "Sub Total: $10.50\nTax: $0.90\nTotal: $11.40"
		})

		It("takes the total from its own line", func() {
			Expect(rec.Total().StringFixed(2)).To(Equal("11.40"))
		})
	})

	When("only a spaced subtotal label is present", func() {
		BeforeEach(func() {
			text = "Sub Total: $10.50\nTax: $0.90"
		})

		It("leaves the total at zero", func() {
			Expect(rec.Total().IsZero()).To(BeTrue())
		})
	})

	When("a total label follows other text on its line", func() {
		BeforeEach(func() {
			text = "Items: 3 Total: $11.40"
		})

		It("does not read it", func() {
			Expect(rec.Total().IsZero()).To(BeTrue())
		})
	})

	When("both total labels are present", func() {
		BeforeEach(func() {
			text = "Total: $9.00\nTotal Amount Paid: $11.40"
		})

		It("prefers the amount paid", func() {
			Expect(rec.Total().StringFixed(2)).To(Equal("11.40"))
		})
	})

	When("the date has no time", func() {
		BeforeEach(func() {
			text = "Order Date and Time: March 15th"
		})

		It("leaves the date unknown", func() {
			Expect(rec.OrderDateTime().Found).To(BeFalse())
		})
	})

	When("the date has no comma", func() {
		BeforeEach(func() {
			text = "Order Date and Time: 2024-03-15 11:05 am"
		})

		It("reads date and time", func() {
			Expect(rec.OrderDateTime().String()).To(Equal("2024-03-15 11:05 am"))
		})
	})

	When("a single item line is present", func() {
		BeforeEach(func() {
			text = "* 2 Cheeseburger - $8.99"
		})

		It("yields one line item", func() {
			Expect(rec.Items()).To(HaveLen(1))
			it := rec.Items()[0]
			Expect(it.Item).To(Equal("Cheeseburger"))
			Expect(it.Quantity).To(Equal(2))
			Expect(it.Price.StringFixed(2)).To(Equal("8.99"))
		})
	})

	When("an item line has no price", func() {
		BeforeEach(func() {
			text = "* 2 Cheeseburger\n* 1 Soda - $1.25"
		})

		It("skips it", func() {
			Expect(rec.Items()).To(HaveLen(1))
			Expect(rec.Items()[0].Item).To(Equal("Soda"))
		})
	})
})

var _ = Describe("Extractor", func() {
	It("accepts custom recognizers per field", func() {
		e := NewExtractor(zap.NewNop())
		e.RestaurantName = NewLabelMatcher("Store:", "Restaurant Name:")
		rec := e.Extract("Store: Corner Cafe")
		Expect(rec.RestaurantName().String()).To(Equal("Corner Cafe"))
	})

	It("only takes line-start labels from the start of a line", func() {
		m := NewAmountMatcher("Amount Paid:").OrLineStart("Total:")
		_, ok := m.MatchAmount("Sub Total: $4.00")
		Expect(ok).To(BeFalse())
		d, ok := m.MatchAmount("Sub Total: $4.00\n  total: $5.25")
		Expect(ok).To(BeTrue())
		Expect(d.StringFixed(2)).To(Equal("5.25"))
	})

	It("tries labels in declared order", func() {
		m := NewLabelMatcher("Restaurant Name:", "Store:")
		Expect(m.MatchText("Store: Second\nRestaurant Name: First").String()).To(Equal("First"))
	})
})
