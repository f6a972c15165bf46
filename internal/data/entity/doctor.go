package entity

type Doctor struct {
	BaseSimple
	Name      string  `db:"name"`
	Email     string  `db:"email"`
	Specialty string  `db:"specialty"`
	ImageURL  *string `db:"image_url"`
}
