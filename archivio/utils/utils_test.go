package utils

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{gameerr.ErrQuotaExceeded, BusinessLogicError},
		{fmt.Errorf("wrap: %w", gameerr.ErrAlreadyAttempted), BusinessLogicError},
		{gameerr.NotFound("Sfida"), NotFoundError},
		{gameerr.ErrForbidden, PermissionError},
		{gameerr.Validation("x"), UserError},
		{gameerr.ErrAttributeTooLow, UserError},
		{errors.New("connection refused"), SystemError},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestErrorEmbedHidesInfrastructure(t *testing.T) {
	embed := ErrorEmbed(errors.New("pq: relation does not exist"))
	if embed.Color != config.ErrorColor {
		t.Errorf("Color = %x", embed.Color)
	}
	if want := "🔧 " + gameerr.PlayerMessage(errors.New("")); embed.Description != want {
		t.Errorf("Description = %q, want %q", embed.Description, want)
	}
}

func TestParseContacts(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []models.Contact
		wantErr bool
	}{
		{"empty", "  ", []models.Contact{}, false},
		{"two", "Il Notaio:3, Suor Agnese : 2", []models.Contact{{Name: "Il Notaio", Value: 3}, {Name: "Suor Agnese", Value: 2}}, false},
		{"colon in name", "Via: Roma:1", []models.Contact{{Name: "Via: Roma", Value: 1}}, false},
		{"trailing comma", "Oste:1,", []models.Contact{{Name: "Oste", Value: 1}}, false},
		{"missing value", "Oste", nil, true},
		{"bad value", "Oste:tre", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseContacts(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseContacts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseContacts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatContacts(t *testing.T) {
	if got := FormatContacts(nil); got != "nessuno" {
		t.Errorf("FormatContacts(nil) = %q", got)
	}
	if got := FormatContacts([]models.Contact{{Name: "Oste", Value: 1}, {Name: "Notaio", Value: 3}}); got != "Oste:1, Notaio:3" {
		t.Errorf("FormatContacts() = %q", got)
	}
}

func TestPaging(t *testing.T) {
	if PageCount(0, 5) != 1 || PageCount(5, 5) != 1 || PageCount(6, 5) != 2 {
		t.Error("PageCount mismatch")
	}
	if s, e := PageBounds(1, 5, 7); s != 5 || e != 7 {
		t.Errorf("PageBounds(1,5,7) = %d,%d", s, e)
	}
	if s, e := PageBounds(3, 5, 7); s != 7 || e != 7 {
		t.Errorf("PageBounds past end = %d,%d", s, e)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		used, total int
		want        string
	}{
		{0, 10, "▱▱▱▱▱"},
		{5, 10, "▰▰▱▱▱"},
		{10, 10, "▰▰▰▰▰"},
		{15, 10, "▰▰▰▰▰"},
		{3, 0, "▱▱▱▱▱"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.used, tt.total, 5); got != tt.want {
			t.Errorf("ProgressBar(%d,%d) = %q, want %q", tt.used, tt.total, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Parità assoluta", 7); got != "Parità…" {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("breve", 10); got != "breve" {
		t.Errorf("Truncate() = %q", got)
	}
}
