package models

// Configuration is the company-wide settings singleton.
type Configuration struct {
	ID                string `json:"id,omitempty" gorm:"primaryKey"`
	CompanyName       string `json:"nome_fantasia" gorm:"column:nome_fantasia"`
	Address           string `json:"endereco" gorm:"column:endereco"`
	CompanyLogo       string `json:"company_logo" gorm:"column:company_logo"`
	QuoteValidityDays int    `json:"validade_orcamento" gorm:"column:validade_orcamento" validate:"gte=1"`
}

func (Configuration) TableName() string { return TableConfiguration }

func (c Configuration) Key() string { return c.ID }

// SingletonConfiguration picks the row that acts as the singleton when the
// table holds more than one: the lowest id, whatever order the rows came in.
func SingletonConfiguration(configs []Configuration) (Configuration, bool) {
	if len(configs) == 0 {
		return Configuration{}, false
	}
	pick := configs[0]
	for _, c := range configs[1:] {
		if c.ID < pick.ID {
			pick = c
		}
	}
	return pick, true
}
