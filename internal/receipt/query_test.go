package receipt

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeQuestion", func() {
	It("lower-cases and strips punctuation", func() {
		Expect(NormalizeQuestion("  What's the TOTAL?! ")).To(Equal("whats the total"))
	})
})

var _ = Describe("Engine", func() {
	var (
		engine *Engine
		rec    Record
	)

	BeforeEach(func() {
		engine = NewEngine(nil)
		rec = NewRecord(RecordFields{
			RestaurantName:    Known("ABC Diner"),
			RestaurantAddress: Known("123 Main Street"),
			OrderDateTime:     Known("03/15/2024, 7:45 PM"),
			PaymentMethod:     Known("Visa"),
			Items: []LineItem{
				{Item: "Cheeseburger", Quantity: 2, Price: dec("8.99")},
				{Item: "Iced Tea", Quantity: 1, Price: dec("2")},
			},
			Subtotal: dec("10.50"),
			Tax:      dec("0.90"),
			Total:    dec("11.40"),
		})
	})

	Describe("Classify", func() {
		DescribeTable("declared priority order",
			func(question string, want Intent) {
				Expect(engine.Classify(question)).To(Equal(want))
			},
			Entry("restaurant name", "What is the restaurant name?", IntentRestaurantName),
			Entry("address", "Where is the address?", IntentAddress),
			Entry("date", "What date was it?", IntentDateTime),
			Entry("placed", "When was the order placed?", IntentDateTime),
			Entry("payment", "How did I pay? payment please", IntentPaymentMethod),
			Entry("items", "Which items did I get?", IntentItemsOrdered),
			Entry("subtotal", "What is the subtotal?", IntentSubtotal),
			Entry("tax", "How much tax?", IntentTax),
			Entry("total", "What is the total?", IntentTotal),
			Entry("address beats total", "Is the total printed next to the address?", IntentAddress),
			Entry("ordered beats subtotal", "subtotal of what I ordered", IntentItemsOrdered),
			Entry("subtotal beats total", "subtotal", IntentSubtotal),
			Entry("gibberish", "random gibberish xyz", IntentUnknown),
			Entry("empty", "", IntentUnknown),
		)

		It("matches keywords as substrings", func() {
			Expect(engine.Classify("timestamp?")).To(Equal(IntentDateTime))
		})
	})

	Describe("Answer", func() {
		It("renders the restaurant name", func() {
			Expect(engine.Answer("restaurant name?", rec)).To(Equal("The restaurant name is ABC Diner."))
		})

		It("renders the address", func() {
			Expect(engine.Answer("address", rec)).To(Equal("The restaurant address is 123 Main Street."))
		})

		It("renders the date and time", func() {
			Expect(engine.Answer("when was it placed", rec)).To(Equal("The order was placed on 03/15/2024, 7:45 PM."))
		})

		It("renders the payment method", func() {
			Expect(engine.Answer("What is the payment method?", rec)).To(Equal("The payment method used was Visa."))
		})

		It("renders one line per item", func() {
			Expect(engine.Answer("What items were ordered?", rec)).To(Equal(
				"The items ordered are:\n" +
					"- Cheeseburger (Quantity: 2, Price: $8.99)\n" +
					"- Iced Tea (Quantity: 1, Price: $2.00)"))
		})

		It("renders the subtotal and tax", func() {
			Expect(engine.Answer("subtotal?", rec)).To(Equal("The subtotal is $10.50."))
			Expect(engine.Answer("tax?", rec)).To(Equal("The tax amount is $0.90."))
		})

		It("renders a three line breakdown for the total", func() {
			answer := engine.Answer("What is the total?", rec)
			lines := strings.Split(answer, "\n")
			Expect(lines).To(HaveLen(4))
			Expect(lines[1]).To(Equal("- Subtotal: $10.50"))
			Expect(lines[2]).To(Equal("- Tax: $0.90"))
			Expect(lines[3]).To(Equal("- Total Amount Paid: $11.40"))
		})

		It("returns the help message for unknown questions", func() {
			Expect(engine.Answer("random gibberish xyz", rec)).To(Equal(HelpMessage))
		})

		When("fields were not recognized", func() {
			BeforeEach(func() {
				rec = Extract("")
			})

			It("explains that the date is unavailable", func() {
				Expect(engine.Answer("what time?", rec)).To(Equal("The order date and time are not available in the receipt."))
			})

			It("renders Unknown for other text fields", func() {
				Expect(engine.Answer("restaurant name", rec)).To(Equal("The restaurant name is Unknown."))
			})

			It("renders zero amounts", func() {
				Expect(engine.Answer("tax", rec)).To(Equal("The tax amount is $0.00."))
			})
		})
	})

	When("custom rules reorder the intents", func() {
		BeforeEach(func() {
			engine = NewEngine([]Rule{
				{Intent: IntentTotal, Keywords: []string{"Total", "amount paid"}},
				{Intent: IntentAddress, Keywords: []string{"address"}},
			})
		})

		It("uses the new order", func() {
			Expect(engine.Classify("Is the total printed next to the address?")).To(Equal(IntentTotal))
		})

		It("normalizes keywords", func() {
			Expect(engine.Rules()[0].Keywords).To(Equal([]string{"total", "amount paid"}))
		})

		It("drops intents that are not listed", func() {
			Expect(engine.Classify("tax")).To(Equal(IntentUnknown))
		})
	})
})
