package dto

// SignupRequest registers an alumni or faculty account.
type SignupRequest struct {
	Name             string `json:"name" binding:"required,min=2,max=100" example:"Jane Doe"`
	Email            string `json:"email" binding:"required,email" example:"jane@example.com"`
	Password         string `json:"password" binding:"required,min=6,max=72" example:"s3cretpass"`
	Role             string `json:"role" binding:"required,role_signup" example:"alumni"`
	EnrollmentNumber string `json:"enrollmentNumber" binding:"omitempty,max=50" example:"ENR2019001"`
	EmployeeID       string `json:"employeeId" binding:"omitempty,max=50" example:"EMP042"`
}

// SignupResponse confirms a pending registration.
type SignupResponse struct {
	ID      int64  `json:"id" example:"12"`
	Email   string `json:"email" example:"jane@example.com"`
	Message string `json:"message" example:"Signup successful, your account is pending admin approval"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// ChangePasswordRequest changes the caller's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=72"`
}

// ForgotPasswordRequest asks for a one-time reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordWithOTPRequest sets a new password using an emailed code.
type ResetPasswordWithOTPRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,len=6,numeric" example:"482913"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=72"`
}
