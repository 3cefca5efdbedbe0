package validation

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type signupForm struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

func validate(t *testing.T, s any) error {
	t.Helper()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		t.Fatal("binding engine is not *validator.Validate")
	}
	return v.Struct(s)
}

func TestToDetails_FieldNamesFromJSONTags(t *testing.T) {
	Init()

	err := validate(t, signupForm{Email: "nope", Password: "five5"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	details := ToDetails(err)
	if details["username"] != "is required" {
		t.Errorf("username detail = %q", details["username"])
	}
	if details["email"] != "must be a valid email" {
		t.Errorf("email detail = %q", details["email"])
	}
	if details["password"] != "must be at least 6 characters long" {
		t.Errorf("password detail = %q", details["password"])
	}
}

func TestToDetails_ValidInput(t *testing.T) {
	Init()

	err := validate(t, signupForm{Username: "alice", Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := ToDetails(nil); d != nil {
		t.Errorf("ToDetails(nil) = %v, want nil", d)
	}
}

func TestToDetails_BadJSON(t *testing.T) {
	var form signupForm
	err := json.Unmarshal([]byte("{"), &form)
	if err == nil {
		t.Fatal("expected json error")
	}
	details := ToDetails(err)
	if details["payload"] != "invalid json" {
		t.Errorf("payload detail = %q", details["payload"])
	}
}
