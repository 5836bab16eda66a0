package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/BackendStack21/lattice-lite-go/utils"
)

// KeyPairExport is the keygen output.
type KeyPairExport struct {
	KeyID     string `json:"key_id"`
	Level     string `json:"level"`
	Format    string `json:"format"`
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
	CreatedAt string `json:"created_at"`
}

// EncapsulationExport is the encapsulate output.
type EncapsulationExport struct {
	KeyID        string `json:"key_id,omitempty"`
	Level        string `json:"level"`
	Format       string `json:"format"`
	Ciphertext   string `json:"ciphertext"`
	SharedSecret string `json:"shared_secret"`
}

// DecapsulationExport is the decapsulate output.
type DecapsulationExport struct {
	Format       string `json:"format"`
	SharedSecret string `json:"shared_secret"`
}

// keyID names a key by its public half, so the same key always gets the
// same id.
func keyID(publicKey []byte) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, publicKey).String()
}

func encodeBytes(data []byte, format OutputFormat) string {
	switch format {
	case FormatBase64:
		return base64.StdEncoding.EncodeToString(data)
	default:
		return hex.EncodeToString(data)
	}
}

// decodeString decodes s in the given format. With no format hex is tried
// first: a hex string can also be valid base64, the reverse is rare.
func decodeString(s string, format OutputFormat) ([]byte, error) {
	s = strings.TrimSpace(s)
	switch format {
	case FormatHex:
		return hex.DecodeString(s)
	case FormatBase64:
		return base64.StdEncoding.DecodeString(s)
	}
	if data, err := hex.DecodeString(s); err == nil {
		return data, nil
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return nil, errors.New("unable to decode value as hex or base64")
}

// loadField reads one binary field from a JSON export, or the whole file
// when it holds a bare hex or base64 value.
func loadField(filename, field string) ([]byte, map[string]string, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to stat file")
	}
	if err := utils.CheckLength(int(info.Size()), utils.MaxInputFileSize); err != nil {
		return nil, nil, errors.Wrapf(err, "input file %s is %d bytes", filename, info.Size())
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		raw, derr := decodeString(string(data), "")
		if derr != nil {
			return nil, nil, errors.Errorf("%s: not a JSON export or bare hex/base64 value", filename)
		}
		return raw, nil, nil
	}
	val, ok := doc[field]
	if !ok {
		return nil, nil, errors.Errorf("%s: no %q field", filename, field)
	}
	raw, err := decodeString(val, OutputFormat(doc["format"]))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: field %q", filename, field)
	}
	return raw, doc, nil
}

func decodeSeed(s string) ([]byte, error) {
	seed, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrap(err, "--seed must be hex")
	}
	return seed, nil
}

// writeOutput writes data to --output with mode 0600, or to stdout.
func writeOutput(c *cli.Context, data []byte) error {
	filename := c.String(outputFlag)
	if filename == "" {
		_, err := fmt.Fprintln(c.App.Writer, string(data))
		return err
	}
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "writing output file")
	}
	// The file may have existed with looser permissions.
	return errors.Wrap(os.Chmod(filename, 0600), "setting output file permissions")
}

func writeJSON(c *cli.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling output")
	}
	return writeOutput(c, data)
}
