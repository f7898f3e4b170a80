package model

// 配送先住所（ordersに埋め込み、shipping_ プレフィックスの列になる）
type ShippingAddress struct {
	Street string `gorm:"type:varchar(255)" json:"street"`
	Number string `gorm:"type:varchar(20)" json:"number"`

	//建物名など
	Complement string `gorm:"type:varchar(255)" json:"complement"`

	//bairro
	Neighborhood string `gorm:"type:varchar(255)" json:"neighborhood"`

	City string `gorm:"type:varchar(255)" json:"city"`

	//UF（SP, RJ ...）
	State string `gorm:"type:varchar(2)" json:"state"`

	//CEP
	ZipCode string `gorm:"type:varchar(9)" json:"zip_code"`

	Country string `gorm:"type:varchar(100)" json:"country"`
}

func (a ShippingAddress) IsZero() bool {
	return a == ShippingAddress{}
}
