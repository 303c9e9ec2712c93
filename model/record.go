package model

// Well-known categories. Any string is a valid category.
const (
	CategoryError = "error"
	CategoryWarn  = "warn"
	CategoryInfo  = "info"
)

// Record is the unit being dispatched. Callers build one per dispatch and
// pass it by value; nothing downstream mutates it.
type Record struct {
	Category string `json:"category"`
	Payload  string `json:"payload"`
}
