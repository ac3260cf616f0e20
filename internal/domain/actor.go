package domain

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Actor is whoever triggers an order operation.
type Actor struct {
	ID   string
	Role Role
}

func Buyer(id string) Actor  { return Actor{ID: id, Role: RoleBuyer} }
func Seller(id string) Actor { return Actor{ID: id, Role: RoleSeller} }
