package model

type (
	Topic     string
	Sentiment string
	Priority  string
)

// Closed topic taxonomy. Multi-label: each email carries 1-5 topics.
// TopicUnknown is a valid label when nothing else fits.
const (
	TopicBilling     Topic = "FATTURAZIONE"
	TopicTechSupport Topic = "ASSISTENZATECNICA"
	TopicComplaint   Topic = "RECLAMO"
	TopicSalesInfo   Topic = "INFOCOMMERCIALI"
	TopicDocuments   Topic = "DOCUMENTI"
	TopicAppointment Topic = "APPUNTAMENTO"
	TopicContract    Topic = "CONTRATTO"
	TopicWarranty    Topic = "GARANZIA"
	TopicShipping    Topic = "SPEDIZIONE"
	TopicUnknown     Topic = "UNKNOWNTOPIC"
)

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Priority is ordered low to urgent; Ordinal supports comparisons.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Topics returns every label in the closed taxonomy, in stable order.
func Topics() []Topic {
	return []Topic{
		TopicBilling,
		TopicTechSupport,
		TopicComplaint,
		TopicSalesInfo,
		TopicDocuments,
		TopicAppointment,
		TopicContract,
		TopicWarranty,
		TopicShipping,
		TopicUnknown,
	}
}

func (t Topic) Valid() bool {
	for _, known := range Topics() {
		if t == known {
			return true
		}
	}
	return false
}

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Ordinal returns 0 for low through 3 for urgent, -1 for unknown values.
func (p Priority) Ordinal() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return -1
}
