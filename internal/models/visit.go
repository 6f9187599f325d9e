package models

// Attachment tags.
const (
	AttachmentCheckIn  = "check-in"
	AttachmentCheckOut = "check-out"
)

// Visit is a scheduled or completed field-sales call at a store. The four
// check-in/check-out fields are nullable; their presence drives the derived
// display status.
type Visit struct {
	ID           int64        `json:"id,omitempty"`
	StoreID      int64        `json:"storeId"`
	StoreName    string       `json:"storeName,omitempty"`
	EmployeeID   int64        `json:"employeeId"`
	EmployeeName string       `json:"employeeName,omitempty"`
	City         string       `json:"city,omitempty"`
	VisitDate    string       `json:"visit_date,omitempty"`
	ScheduledAt  string       `json:"scheduledStartTime,omitempty"`
	CheckinDate  *string      `json:"checkinDate"`
	CheckinTime  *string      `json:"checkinTime"`
	CheckoutDate *string      `json:"checkoutDate"`
	CheckoutTime *string      `json:"checkoutTime"`
	Purpose      string       `json:"purpose,omitempty"`
	Outcome      string       `json:"outcome,omitempty"`
	Intent       int          `json:"intent,omitempty"`
	Feedback     string       `json:"feedback,omitempty"`
	Priority     string       `json:"priority,omitempty"`
	Attachments  []Attachment `json:"attachmentResponse,omitempty"`
}

// Attachment is a photo or document captured at check-in or check-out.
type Attachment struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	Tag      string `json:"tag"`
}

// AttachmentsTagged filters attachments by tag.
func (v Visit) AttachmentsTagged(tag string) []Attachment {
	var out []Attachment
	for _, a := range v.Attachments {
		if a.Tag == tag {
			out = append(out, a)
		}
	}
	return out
}

// Note is free text attached to a store, optionally pointing back at the
// visit it was written during.
type Note struct {
	ID           int64  `json:"id,omitempty"`
	Content      string `json:"content"`
	CreatedDate  string `json:"createdDate,omitempty"`
	EmployeeID   int64  `json:"employeeId,omitempty"`
	EmployeeName string `json:"employeeName,omitempty"`
	StoreID      int64  `json:"storeId,omitempty"`
	VisitID      *int64 `json:"visitId,omitempty"`
}
