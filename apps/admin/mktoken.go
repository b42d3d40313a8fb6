package main

import (
	"fmt"

	echoapi "github.com/abdulmaxwell/zetech-smart-attend/apps/api/echo"
)

// mkToken mints a signed API token. Identity lives outside this system, so
// tokens are issued off-band and handed to devices and staff tooling.
func (cli *commandLine) mkToken(subject, name, email, role string) error {
	if role != "student" && role != "teacher" && role != "admin" {
		return fmt.Errorf("unknown role %q", role)
	}

	claims := echoapi.NewClaims(
		subject, name, email,
		role == "student", role == "teacher", role == "admin")
	token, err := echoapi.GenerateToken(claims)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
