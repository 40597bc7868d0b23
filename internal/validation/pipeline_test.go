package validation_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/validation"
)

func newRequest() *model.TriageRequest {
	return &model.TriageRequest{
		Email: model.EmailDocument{
			UID:     "em-001",
			Subject: "Problema con la fattura",
			Body:    "Buongiorno, ho ricevuto una fattura errata per il mese di luglio. Vi prego di verificare l'addebito il prima possibile. Cordiali saluti.",
		},
		Candidates: []model.CandidateKeyword{
			{CandidateID: "c1", Term: "fattura", Lemma: "fattura", Count: 2, Score: 0.9},
			{CandidateID: "c2", Term: "addebito", Lemma: "addebito", Count: 1, Score: 0.7},
			{CandidateID: "c3", Term: "contratto", Lemma: "contratto", Count: 1, Score: 0.3},
		},
		DictionaryVersion: 7,
	}
}

const validOutput = `{
	"dictionaryversion": 7,
	"sentiment": {"value": "negative", "confidence": 0.85},
	"priority": {"value": "high", "confidence": 0.7, "signals": ["fattura errata", "richiesta urgente"]},
	"topics": [
		{
			"labelid": "FATTURAZIONE",
			"confidence": 0.92,
			"keywordsintext": [
				{"candidateid": "c1", "lemma": "fattura", "count": 2, "spans": [[36, 43]]}
			],
			"evidence": [
				{"quote": "ho ricevuto una fattura errata", "span": null}
			]
		}
	]
}`

var _ = Describe("Validate", func() {
	var (
		ctx  context.Context
		req  *model.TriageRequest
		vctx validation.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		req = newRequest()
		vctx = validation.NewContext(req)
	})

	It("accepts a conforming response with no warnings", func() {
		resp, warnings, err := validation.Validate(ctx, validOutput, vctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(BeEmpty())
		Expect(resp.DictionaryVersion).To(Equal(7))
		Expect(resp.Topics).To(HaveLen(1))
		Expect(resp.Topics[0].LabelID).To(Equal(model.TopicBilling))
		Expect(resp.Sentiment.Value).To(Equal(model.SentimentNegative))
		Expect(resp.Priority.Value).To(Equal(model.PriorityHigh))
	})

	Describe("structural parse", func() {
		It("rejects empty output", func() {
			_, _, err := validation.Validate(ctx, "", vctx)

			var perr *validation.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
		})

		It("rejects whitespace-only output", func() {
			_, _, err := validation.Validate(ctx, "   \n\t", vctx)

			var perr *validation.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
		})

		It("rejects malformed JSON with a bounded snippet", func() {
			raw := `{"dictionaryversion": ` + strings.Repeat("x", 2000)
			_, _, err := validation.Validate(ctx, raw, vctx)

			var perr *validation.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(len(perr.Snippet)).To(BeNumerically("<=", 500))
		})

		It("rejects a top-level array", func() {
			_, _, err := validation.Validate(ctx, `[1, 2, 3]`, vctx)

			var perr *validation.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
		})

		It("rejects a top-level string", func() {
			_, _, err := validation.Validate(ctx, `"FATTURAZIONE"`, vctx)

			var perr *validation.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
		})
	})

	Describe("schema conformance", func() {
		It("collects every violation in one pass", func() {
			raw := `{
				"dictionaryversion": 7,
				"priority": {"value": "sideways", "confidence": 0.7, "signals": []},
				"topics": []
			}`
			_, _, err := validation.Validate(ctx, raw, vctx)

			var serr *validation.SchemaError
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(len(serr.Violations)).To(BeNumerically(">=", 2))
		})

		It("rejects unknown top-level fields", func() {
			raw := strings.Replace(validOutput, `"dictionaryversion"`, `"extra": 1, "dictionaryversion"`, 1)
			_, _, err := validation.Validate(ctx, raw, vctx)

			var serr *validation.SchemaError
			Expect(errors.As(err, &serr)).To(BeTrue())
		})

		It("rejects more than five topics", func() {
			topic := `{"labelid": "FATTURAZIONE", "confidence": 0.5, "keywordsintext": [{"candidateid": "c1", "lemma": "fattura", "count": 1, "spans": []}], "evidence": [{"quote": "fattura"}]}`
			topics := topic
			for i := 0; i < 5; i++ {
				topics += "," + topic
			}
			raw := `{
				"dictionaryversion": 7,
				"sentiment": {"value": "neutral", "confidence": 0.5},
				"priority": {"value": "low", "confidence": 0.5, "signals": ["s"]},
				"topics": [` + topics + `]
			}`
			_, _, err := validation.Validate(ctx, raw, vctx)

			var serr *validation.SchemaError
			Expect(errors.As(err, &serr)).To(BeTrue())
		})

		It("rejects evidence quotes over the length limit", func() {
			longQuote := strings.Repeat("a", model.MaxEvidenceQuoteLen+1)
			raw := strings.Replace(validOutput, "ho ricevuto una fattura errata", longQuote, 1)
			_, _, err := validation.Validate(ctx, raw, vctx)

			var serr *validation.SchemaError
			Expect(errors.As(err, &serr)).To(BeTrue())
		})

		It("rejects labels outside the taxonomy", func() {
			raw := strings.Replace(validOutput, "FATTURAZIONE", "MARKETING", 1)
			_, _, err := validation.Validate(ctx, raw, vctx)

			var serr *validation.SchemaError
			Expect(errors.As(err, &serr)).To(BeTrue())
		})

		It("rejects topics with empty keywords or evidence", func() {
			raw := `{
				"dictionaryversion": 7,
				"sentiment": {"value": "neutral", "confidence": 0.5},
				"priority": {"value": "low", "confidence": 0.5, "signals": ["s"]},
				"topics": [{"labelid": "FATTURAZIONE", "confidence": 0.6, "keywordsintext": [], "evidence": []}]
			}`
			_, _, err := validation.Validate(ctx, raw, vctx)

			var serr *validation.SchemaError
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(len(serr.Violations)).To(BeNumerically(">=", 2))
		})
	})

	Describe("business rules", func() {
		It("rejects a dictionary version mismatch", func() {
			raw := strings.Replace(validOutput, `"dictionaryversion": 7`, `"dictionaryversion": 6`, 1)
			_, _, err := validation.Validate(ctx, raw, vctx)

			var berr *validation.BusinessRuleError
			Expect(errors.As(err, &berr)).To(BeTrue())
			Expect(berr.Rule).To(Equal(validation.RuleDictionaryVersion))
		})

		It("rejects candidate references absent from the request", func() {
			raw := strings.Replace(validOutput, `"candidateid": "c1"`, `"candidateid": "c99"`, 1)
			_, _, err := validation.Validate(ctx, raw, vctx)

			var berr *validation.BusinessRuleError
			Expect(errors.As(err, &berr)).To(BeTrue())
			Expect(berr.Rule).To(Equal(validation.RuleCandidateExists))
			Expect(berr.Value).To(Equal("c99"))
		})
	})

	Describe("quality warnings", func() {
		It("warns on low topic confidence without failing", func() {
			raw := strings.Replace(validOutput, "0.92", "0.05", 1)
			resp, warnings, err := validation.Validate(ctx, raw, vctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp).NotTo(BeNil())
			Expect(warnings).To(ContainElement(ContainSubstring("low confidence")))
		})

		It("warns on empty priority signals", func() {
			raw := strings.Replace(validOutput, `["fattura errata", "richiesta urgente"]`, `[]`, 1)
			_, warnings, err := validation.Validate(ctx, raw, vctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(ContainElement(ContainSubstring("no supporting signals")))
		})

		It("warns on duplicate topic labels", func() {
			topic := `{"labelid": "FATTURAZIONE", "confidence": 0.8, "keywordsintext": [{"candidateid": "c2", "lemma": "addebito", "count": 1, "spans": []}], "evidence": [{"quote": "verificare l'addebito"}]}`
			raw := strings.Replace(validOutput, "]\n}", ","+topic+"]\n}", 1)
			_, warnings, err := validation.Validate(ctx, raw, vctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(ContainElement(ContainSubstring("duplicate topic label")))
		})

		It("warns on low sentiment and priority confidence without failing", func() {
			raw := strings.Replace(validOutput, `"value": "negative", "confidence": 0.85`, `"value": "negative", "confidence": 0.05`, 1)
			raw = strings.Replace(raw, `"value": "high", "confidence": 0.7`, `"value": "high", "confidence": 0.05`, 1)
			resp, warnings, err := validation.Validate(ctx, raw, vctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp).NotTo(BeNil())
			Expect(warnings).To(ContainElement(ContainSubstring("sentiment: low confidence")))
			Expect(warnings).To(ContainElement(ContainSubstring("priority: low confidence")))
		})
	})

	Describe("text verifiers", func() {
		It("warns when a quote does not appear in the email", func() {
			raw := strings.Replace(validOutput, "ho ricevuto una fattura errata", "testo mai scritto", 1)
			resp, warnings, err := validation.Validate(ctx, raw, vctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp).NotTo(BeNil())
			Expect(warnings).To(ContainElement(ContainSubstring("quote not found")))
		})

		It("matches quotes case-insensitively", func() {
			raw := strings.Replace(validOutput, "ho ricevuto una fattura errata", "HO RICEVUTO UNA FATTURA ERRATA", 1)
			_, warnings, err := validation.Validate(ctx, raw, vctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(BeEmpty())
		})

		It("strips out-of-bounds spans and warns", func() {
			raw := strings.Replace(validOutput, "[[36, 43]]", "[[36, 99999]]", 1)
			resp, warnings, err := validation.Validate(ctx, raw, vctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(ContainElement(ContainSubstring("out of bounds")))
			Expect(resp.Topics[0].KeywordsInText[0].Spans).To(BeEmpty())
		})

		It("skips text verifiers when disabled", func() {
			vctx.CheckEvidenceText = false
			vctx.CheckKeywordText = false
			raw := strings.Replace(validOutput, "ho ricevuto una fattura errata", "testo mai scritto", 1)
			_, warnings, err := validation.Validate(ctx, raw, vctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(BeEmpty())
		})
	})
})
