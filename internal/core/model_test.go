package core_test

import (
	"testing"

	"cantina-ledger/internal/core"
)

func TestPaymentMethodValid(t *testing.T) {
	valid := []core.PaymentMethod{
		core.MethodDinheiro, core.MethodPix,
		core.MethodCartaoDebito, core.MethodCartaoCredito, core.MethodFiado,
	}
	for _, m := range valid {
		if !m.Valid() {
			t.Errorf("expected %s to be valid", m)
		}
	}
	for _, m := range []core.PaymentMethod{"", "cheque", "DINHEIRO"} {
		if m.Valid() {
			t.Errorf("expected %q to be invalid", m)
		}
	}
}

func TestPaymentMethodLabel(t *testing.T) {
	cases := map[core.PaymentMethod]string{
		core.MethodDinheiro:      "Dinheiro",
		core.MethodPix:           "PIX",
		core.MethodCartaoDebito:  "Débito",
		core.MethodCartaoCredito: "Crédito",
		core.MethodFiado:         "Fiado",
	}
	for m, want := range cases {
		if got := m.Label(); got != want {
			t.Errorf("Label(%s) = %q, want %q", m, got, want)
		}
	}
}

func TestReservationStatusTerminal(t *testing.T) {
	if core.ReservationPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	for _, s := range []core.ReservationStatus{
		core.ReservationCompletedPaid, core.ReservationCompletedDebt, core.ReservationMissed,
	} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
}

func TestReservationStatusLabel(t *testing.T) {
	cases := map[core.ReservationStatus]string{
		core.ReservationPending:       "Pendente",
		core.ReservationCompletedPaid: "Concluída (Pago)",
		core.ReservationCompletedDebt: "Concluída (Fiado)",
		core.ReservationMissed:        "Não compareceu",
	}
	for s, want := range cases {
		if got := s.Label(); got != want {
			t.Errorf("Label(%s) = %q, want %q", s, got, want)
		}
	}
}
