package contract

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Mode     string `json:"mode"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

type AddContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type SendMessageRequest struct {
	ContactEmail string `json:"contact_email"`
	Text         string `json:"text"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type NoticeResponse struct {
	Level  string `json:"level"`
	Notice string `json:"notice"`
	Next   string `json:"next,omitempty"`
}

type SignInResponse struct {
	NoticeResponse
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type ProfileResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ChatItem struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Subtitle string `json:"subtitle"`
	Time     string `json:"time"`
}

// ChatHeader opens a message stream.
type ChatHeader struct {
	Title string `json:"title"`
	Email string `json:"email"`
}

type Bubble struct {
	Text string `json:"text"`
	HTML string `json:"html"`
	Time string `json:"time"`
	Mine bool   `json:"mine"`
}
