package receipt

import (
	"encoding/json"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Evaluate", func() {
	It("scores exact matches per field", func() {
		ev := Evaluate(map[string]any{"a": 1, "b": 2}, map[string]any{"a": 1, "b": 3})
		Expect(ev.Accuracy).To(BeNumerically("==", 50))
		Expect(ev.Fields["a"].Accuracy()).To(BeNumerically("==", 100))
		Expect(ev.Fields["b"].Accuracy()).To(BeNumerically("==", 0))
		Expect(ev.Fields["a"]).To(Equal(FieldStat{Correct: 1, Total: 1}))
	})

	It("compares numbers by value across Go types", func() {
		ev := Evaluate(map[string]any{"total": 11.4}, map[string]any{"total": json.Number("11.40")})
		Expect(ev.Accuracy).To(BeNumerically("==", 100))
	})

	It("does not tolerate case differences", func() {
		ev := Evaluate(map[string]any{"name": "ABC Diner"}, map[string]any{"name": "abc diner"})
		Expect(ev.Accuracy).To(BeNumerically("==", 0))
	})

	It("counts fields missing from actual as wrong", func() {
		ev := Evaluate(map[string]any{"tip": 1.0}, map[string]any{})
		Expect(ev.Fields["tip"]).To(Equal(FieldStat{Correct: 0, Total: 1}))
	})

	It("ignores fields that are not expected", func() {
		ev := Evaluate(map[string]any{"a": 1}, map[string]any{"a": 1, "z": 9})
		Expect(ev.Fields).To(HaveLen(1))
		Expect(ev.Accuracy).To(BeNumerically("==", 100))
	})

	It("still scores every field when one value has no JSON form", func() {
		ev := Evaluate(map[string]any{"a": 1, "b": math.NaN()}, map[string]any{"a": 1})
		Expect(ev.Fields).To(HaveLen(2))
		Expect(ev.Fields["a"]).To(Equal(FieldStat{Correct: 1, Total: 1}))
		Expect(ev.Fields["b"]).To(Equal(FieldStat{Correct: 0, Total: 1}))
		Expect(ev.Accuracy).To(BeNumerically("==", 50))
	})

	It("reports zero accuracy when nothing is expected", func() {
		ev := Evaluate(map[string]any{}, map[string]any{"a": 1})
		Expect(ev.Accuracy).To(BeNumerically("==", 0))
		Expect(ev.Fields).To(BeEmpty())
	})

	Describe("EvaluateRecord", func() {
		var expected map[string]any

		BeforeEach(func() {
			Expect(json.Unmarshal([]byte(`{
				"restaurant_name": "ABC Diner",
				"order_date_time": "Unknown",
				"items_ordered": [{"item": "Cheeseburger", "quantity": 2, "price": 8.99}],
				"subtotal": 10.5,
				"tax": 0.9,
				"total": 11.4
			}`), &expected)).To(Succeed())
		})

		It("matches a record extracted from the same receipt", func() {
			rec := Extract("Restaurant Name: ABC Diner\n* 2 Cheeseburger - $8.99\nSubtotal: $10.50\nTax: $0.90\nTotal Amount Paid: $11.40")
			ev := EvaluateRecord(expected, rec)
			Expect(ev.Accuracy).To(BeNumerically("==", 100))
		})

		It("flags a wrong item list", func() {
			rec := Extract("Restaurant Name: ABC Diner\n* 3 Cheeseburger - $8.99\nSubtotal: $10.50\nTax: $0.90\nTotal Amount Paid: $11.40")
			ev := EvaluateRecord(expected, rec)
			Expect(ev.Fields[FieldItemsOrdered].Correct).To(Equal(0))
			Expect(ev.Fields[FieldTotal].Correct).To(Equal(1))
		})
	})
})

var _ = Describe("Tally", func() {
	It("sums per-field counts before computing percentages", func() {
		t := NewTally()
		t.Add(Evaluation{Accuracy: 50, Fields: map[string]FieldStat{
			"a": {Correct: 1, Total: 1},
			"b": {Correct: 0, Total: 1},
		}})
		t.Add(Evaluation{Accuracy: 100, Fields: map[string]FieldStat{
			"a": {Correct: 1, Total: 1},
			"b": {Correct: 1, Total: 1},
		}})

		Expect(t.Receipts).To(Equal(2))
		Expect(t.Fields["a"]).To(Equal(FieldStat{Correct: 2, Total: 2}))
		Expect(t.FieldAccuracy("a")).To(BeNumerically("==", 100))
		Expect(t.FieldAccuracy("b")).To(BeNumerically("==", 50))
		Expect(t.AverageAccuracy()).To(BeNumerically("==", 75))
	})

	It("weights fields by how often they occur", func() {
		t := NewTally()
		t.Add(Evaluation{Accuracy: 0, Fields: map[string]FieldStat{"a": {Correct: 0, Total: 1}}})
		t.Add(Evaluation{Accuracy: 100, Fields: map[string]FieldStat{"a": {Correct: 3, Total: 3}}})

		Expect(t.FieldAccuracy("a")).To(BeNumerically("==", 75))
	})

	It("is zero when empty", func() {
		t := NewTally()
		Expect(t.AverageAccuracy()).To(BeNumerically("==", 0))
		Expect(t.FieldAccuracy("a")).To(BeNumerically("==", 0))
	})
})
