package dto

// RegisterDTO arrives as a multipart form: text fields plus avatar and
// coverImage files. The transport layer stores the uploaded files locally
// and fills the *Path fields before handing the DTO to the service.
type RegisterDTO struct {
	FullName string `form:"fullName" json:"fullName" validate:"required"`
	Email    string `form:"email"    json:"email"    validate:"required,email"`
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`

	AvatarPath     string `form:"-" json:"-" validate:"-"`
	CoverImagePath string `form:"-" json:"-" validate:"-"`
}

// LoginDTO accepts either username or email as the identifier.
type LoginDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}
