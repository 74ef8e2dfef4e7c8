package domain

type Category struct {
	ID             string `db:"id" json:"id"`
	ParentID       string `db:"parent_id" json:"parent_id,omitempty"`
	Name           string `db:"name" json:"name"`
	IconURL        string `db:"icon_url" json:"icon_url,omitempty"`
	AttributeCount int    `db:"attribute_count" json:"attribute_count"`
	CreatedAt      string `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt      string `db:"updated_at" json:"updated_at,omitempty"`
}

// Product carries its spec map as the encoded wire object.
type Product struct {
	ID          string  `db:"id"`
	CategoryID  string  `db:"category_id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Price       float64 `db:"price"`
	SpecsJSON   string  `db:"specs_json"`
	Active      bool    `db:"active"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

// ProductDraft is the create payload for a product with its specs.
type ProductDraft struct {
	CategoryID  string         `json:"category_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Specs       map[string]any `json:"specs"`
}

type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}

const RoleAdmin = "ADMIN"
