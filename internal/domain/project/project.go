package project

type Mode string

const (
	// ModeAllOrNothing funds only if the goal is reached.
	ModeAllOrNothing Mode = "aon"
	ModeFlexible     Mode = "flex"
	ModeSubscription Mode = "sub"
)

type Project struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Mode   Mode   `json:"mode"`
	Data   Data   `json:"data"`
}

type Data struct {
	Name      string `json:"name"`
	ExpiresAt string `json:"expires_at"`
}
