package request

type CreateBookingRequest struct {
	ServiceID       string  `json:"service_id" validate:"required,uuid"`
	PackageID       string  `json:"package_id" validate:"required,max=100"`
	EventDate       string  `json:"event_date" validate:"required,datetime=2006-01-02"`
	EventAddress    string  `json:"event_address" validate:"required,min=5,max=500"`
	EventCity       string  `json:"event_city" validate:"required,max=100"`
	SpecialRequests *string `json:"special_requests,omitempty" validate:"omitempty,max=2000"`
}

type AdminDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason" validate:"required_if=Decision reject,max=1000"`
}

func (r AdminDecisionRequest) IsApprove() bool {
	return r.Decision == "approve"
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type BookingListRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=pending admin_reviewing approved payment_pending payment_completed confirmed vendor_contacted in_progress completed rejected cancelled"`
}
