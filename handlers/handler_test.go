package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/StartUpFoundee/mantra-verse-counter-32/services"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidCount, http.StatusBadRequest},
		{fmt.Errorf("%w: bad date", services.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: %q", services.ErrUnknownPeriod, "hourly"), http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrNoAccountContext, http.StatusUnauthorized},
		{services.ErrPasswordRequired, http.StatusForbidden},
		{services.ErrAccountNotFound, http.StatusNotFound},
		{fmt.Errorf("create account: %w", services.ErrNoFreeSlot), http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
