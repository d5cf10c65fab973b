package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steve-ongera/phoneplace-kenya/internal/checkout"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

func TestAccountDefaults(t *testing.T) {
	user := &domain.User{
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Wanjiru",
		Profile:   &domain.UserProfile{Phone: "0712345678"},
	}

	tests := []struct {
		name string
		form checkout.DeliveryForm
		want checkout.DeliveryForm
	}{
		{
			name: "all from account",
			want: checkout.DeliveryForm{FullName: "Jane Wanjiru", Email: "jane@example.com", Phone: "0712345678"},
		},
		{
			name: "name given keeps email and phone defaults",
			form: checkout.DeliveryForm{FullName: "J. Wanjiru"},
			want: checkout.DeliveryForm{FullName: "J. Wanjiru", Email: "jane@example.com", Phone: "0712345678"},
		},
		{
			name: "flags win",
			form: checkout.DeliveryForm{FullName: "A", Email: "a@example.com", Phone: "0700000000"},
			want: checkout.DeliveryForm{FullName: "A", Email: "a@example.com", Phone: "0700000000"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := tt.form
			accountDefaults(&form, user)
			assert.Equal(t, tt.want, form)
		})
	}

	t.Run("guest", func(t *testing.T) {
		var form checkout.DeliveryForm
		accountDefaults(&form, nil)
		assert.Equal(t, checkout.DeliveryForm{}, form)
	})
}
