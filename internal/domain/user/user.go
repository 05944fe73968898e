package user

// User is a community member: the buyer, or the owner of a project.
type User struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Data      Data   `json:"data"`
}

type Data struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Address *Address `json:"address"`
}

type Address struct {
	Street        string `json:"street"`
	StreetNumber  string `json:"street_number"`
	Neighborhood  string `json:"neighborhood"`
	Zipcode       string `json:"zipcode"`
	State         string `json:"state"`
	City          string `json:"city"`
	Complementary string `json:"complementary"`
}
