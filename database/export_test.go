package database

var (
	StarterCourses    = starterCourses
	StarterPlans      = starterPlans
	IsUniqueViolation = isUniqueViolation
)
