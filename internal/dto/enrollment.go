package dto

// ListEnrollmentsQuery filters enrollment listings.
type ListEnrollmentsQuery struct {
	StudentID string `form:"studentId"`
	ClassID   string `form:"classId"`
	ClassType string `form:"classType" validate:"omitempty,oneof=physical online"`
	Status    string `form:"status" validate:"omitempty,oneof=active ended"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	SortBy    string `form:"sortBy" validate:"omitempty,oneof=enrolled_at student_name class_title"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc ASC DESC"`
}
