// Command hashpassword reads a password from the first line of stdin and
// prints its bcrypt hash, for use as ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/fly-starter/internal/utils"
)

func main() {
	if err := run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hashpassword: %v\n", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer) error {
	cost := utils.DefaultCost
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return errors.Errorf("invalid BCRYPT_COST %q", v)
		}
		cost = n
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "read password")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("empty password")
	}

	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
