package request

type RegisterUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
}

type CreateDoctorRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=100"`
	Email     string  `json:"email" validate:"required,email"`
	Specialty string  `json:"specialty" validate:"required,max=100"`
	ImageURL  *string `json:"image_url,omitempty" validate:"omitempty,url"`
}
