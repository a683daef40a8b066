package postalcode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/cortinas/internal/config"
)

var (
	// ErrNotFound means the code is well formed but unknown to the service.
	ErrNotFound = errors.New("postal code not found")
	// ErrInvalid means the code does not have 8 digits.
	ErrInvalid = errors.New("postal code must have 8 digits")
)

// Address is the result of a lookup.
type Address struct {
	PostalCode   string `json:"cep"`
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Client resolves postal codes to addresses.
type Client interface {
	Lookup(ctx context.Context, code string) (Address, error)
}

// ViaCEPClient is a resty-backed implementation of Client against ViaCEP.
type ViaCEPClient struct {
	httpClient *resty.Client
}

// NewClient builds a lookup client using the provided configuration values.
func NewClient(cfg config.PostalCodeConfig) *ViaCEPClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second)

	return &ViaCEPClient{httpClient: restyClient}
}

// viaCEPResponse mirrors the service payload. "erro" is a bool in older
// deployments and a string in newer ones.
type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	Erro       any    `json:"erro"`
}

// Normalize strips every non-digit and checks the result has 8 digits.
func Normalize(code string) (string, error) {
	var b strings.Builder
	for _, r := range code {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 8 {
		return "", ErrInvalid
	}
	return digits, nil
}

// Lookup resolves code to an address.
func (c *ViaCEPClient) Lookup(ctx context.Context, code string) (Address, error) {
	digits, err := Normalize(code)
	if err != nil {
		return Address{}, err
	}

	result := new(viaCEPResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		Get(fmt.Sprintf("/%s/json/", digits))
	if err != nil {
		return Address{}, fmt.Errorf("postal code lookup: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusBadRequest:
		return Address{}, ErrInvalid
	case resp.StatusCode() == http.StatusNotFound:
		return Address{}, ErrNotFound
	case resp.StatusCode() >= http.StatusBadRequest:
		return Address{}, fmt.Errorf("postal code api error: status=%d", resp.StatusCode())
	}

	if flagged(result.Erro) {
		return Address{}, ErrNotFound
	}

	return Address{
		PostalCode:   digits,
		Address:      result.Logradouro,
		Neighborhood: result.Bairro,
		City:         result.Localidade,
		State:        result.UF,
	}, nil
}

func flagged(v any) bool {
	switch e := v.(type) {
	case bool:
		return e
	case string:
		return strings.EqualFold(e, "true")
	default:
		return false
	}
}
