package validator

import (
	"context"
	"strings"
	"testing"
)

type speakerForm struct {
	Name     string `json:"name" validate:"required,notblank,max=10"`
	Email    string `json:"email" validate:"omitempty,email"`
	ImageURL string `json:"image_url" validate:"required,imageurl"`
	Order    int    `json:"display_order" validate:"gte=0,max=10000"`
}

type paymentForm struct {
	Status string `json:"status" validate:"paymentstatus"`
}

func TestValidate(t *testing.T) {
	valid := speakerForm{Name: "Ada", ImageURL: "https://cdn.example.org/ada.png"}

	tests := []struct {
		name    string
		mutate  func(f *speakerForm)
		wantErr string
	}{
		{name: "valid", mutate: func(f *speakerForm) {}},
		{name: "data uri", mutate: func(f *speakerForm) { f.ImageURL = "data:image/png;base64,iVBORw0KGgo=" }},
		{name: "missing name", mutate: func(f *speakerForm) { f.Name = "" }, wantErr: ErrFieldRequired + ": name"},
		{name: "blank name", mutate: func(f *speakerForm) { f.Name = "   " }, wantErr: ErrFieldRequired + ": name"},
		{name: "long name", mutate: func(f *speakerForm) { f.Name = strings.Repeat("a", 11) }, wantErr: ErrFieldExceedsMaxLen + ": name"},
		{name: "bad email", mutate: func(f *speakerForm) { f.Email = "nope" }, wantErr: ErrInvalidEmail + ": email"},
		{name: "bad image", mutate: func(f *speakerForm) { f.ImageURL = "ftp://x/y.png" }, wantErr: ErrInvalidImageURL + ": image_url"},
		{name: "negative order", mutate: func(f *speakerForm) { f.Order = -1 }, wantErr: ErrFieldBelowMinVal + ": display_order"},
		{name: "order at cap", mutate: func(f *speakerForm) { f.Order = 10000 }},
		{name: "order beyond int32", mutate: func(f *speakerForm) { f.Order = 3000000000 }, wantErr: ErrFieldExceedsMaxVal + ": display_order"},
		{name: "host-less url", mutate: func(f *speakerForm) { f.ImageURL = "https://" }, wantErr: ErrInvalidImageURL + ": image_url"},
		{name: "data uri not an image", mutate: func(f *speakerForm) { f.ImageURL = "data:text/plain;base64,aGVsbG8=" }, wantErr: ErrInvalidImageURL + ": image_url"},
		{name: "data uri bad payload", mutate: func(f *speakerForm) { f.ImageURL = "data:image/png;base64,not base64!" }, wantErr: ErrInvalidImageURL + ": image_url"},
		{name: "data uri without base64", mutate: func(f *speakerForm) { f.ImageURL = "data:image/svg+xml,<svg/>" }, wantErr: ErrInvalidImageURL + ": image_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			err := Validate(context.Background(), f)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %q, got nil", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Fatalf("expected %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidatePaymentStatus(t *testing.T) {
	for _, s := range []string{"pending", "completed"} {
		if err := Validate(context.Background(), paymentForm{Status: s}); err != nil {
			t.Errorf("status %q rejected: %v", s, err)
		}
	}
	if err := Validate(context.Background(), paymentForm{Status: "refunded"}); err == nil {
		t.Error("expected unknown status to be rejected")
	}
}
