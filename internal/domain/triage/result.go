package triage

// Category vocabulary the model is instructed to choose from.
const (
	CategoryRefund          = "Refund"
	CategoryOrderStatus     = "Order Status"
	CategoryComplaint       = "Complaint"
	CategoryProductQuestion = "Product Question"
	CategoryTechnicalIssue  = "Technical Issue"
	CategoryOther           = "Other"
)

// Urgency vocabulary.
const (
	UrgencyLow    = "Low"
	UrgencyMedium = "Medium"
	UrgencyHigh   = "High"
)

// Reply texts of the two fallback results.
const (
	GenerationFallbackReply = "Error generating structured response."
	ProcessingFailedPrefix  = "Processing failed: "
)

// Categories lists the category vocabulary in prompt order.
var Categories = []string{
	CategoryRefund, CategoryOrderStatus, CategoryComplaint,
	CategoryProductQuestion, CategoryTechnicalIssue, CategoryOther,
}

// Urgencies lists the urgency vocabulary in prompt order.
var Urgencies = []string{UrgencyLow, UrgencyMedium, UrgencyHigh}

// Result is the structured outcome of processing one inquiry.
// Values outside the vocabularies are kept as the model produced them.
type Result struct {
	Category string `json:"category"`
	Urgency  string `json:"urgency"`
	Reply    string `json:"reply"`
}

// GenerationFallback is returned when the model call or its output parsing fails.
func GenerationFallback() Result {
	return Result{Category: CategoryOther, Urgency: UrgencyMedium, Reply: GenerationFallbackReply}
}

// ProcessingFallback is returned when the pipeline itself fails; the reply carries the failure.
func ProcessingFallback(reason string) Result {
	return Result{Category: CategoryOther, Urgency: UrgencyMedium, Reply: ProcessingFailedPrefix + reason}
}

// KnownCategory reports whether c belongs to the category vocabulary.
func KnownCategory(c string) bool { return contains(Categories, c) }

// KnownUrgency reports whether u belongs to the urgency vocabulary.
func KnownUrgency(u string) bool { return contains(Urgencies, u) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
