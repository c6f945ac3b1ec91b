package backup

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"otpvault/internal/token"
)

func testEntries() []token.Entry {
	created := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return []token.Entry{
		{
			ID:        "id-1",
			Issuer:    "ACME Corp",
			Account:   "alice@example.com",
			Secret:    "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ",
			Digits:    6,
			Period:    30,
			Algorithm: token.AlgoSHA1,
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:            "id-2",
			Issuer:        "Foo",
			Account:       "bob@example.com",
			Secret:        "GEZDGNBVGY3TQOJQ",
			Digits:        8,
			Period:        60,
			Algorithm:     token.AlgoSHA256,
			RecoveryCodes: []string{"aaaa-bbbb", "cccc-dddd"},
			CreatedAt:     created,
			UpdatedAt:     created.Add(time.Hour),
		},
	}
}

// MinIterations keeps the KDF honest without making the suite crawl.
func testCodec() *Codec {
	return NewCodec(MinIterations)
}

func TestExportImportRoundTrip(t *testing.T) {
	codec := testCodec()
	entries := testEntries()

	data, err := codec.Export("correct horse", entries)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	restored, err := codec.Import("correct horse", data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if !reflect.DeepEqual(entries, restored) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", restored, entries)
	}
}

func TestImportWrongPassword(t *testing.T) {
	codec := testCodec()

	data, err := codec.Export("right", testEntries())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	_, err = codec.Import("wrong", data)
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("expected ErrIntegrity, got %v", err)
	}
}

func TestImportTamperedCiphertext(t *testing.T) {
	codec := testCodec()

	data, err := codec.Export("pw", testEntries())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	env.Ciphertext[len(env.Ciphertext)/2] ^= 0x01
	tampered, _ := json.Marshal(env)

	_, err = codec.Import("pw", tampered)
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("expected ErrIntegrity for tampered ciphertext, got %v", err)
	}
}

func TestImportTamperedTag(t *testing.T) {
	codec := testCodec()

	data, err := codec.Export("pw", testEntries())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var env Envelope
	json.Unmarshal(data, &env)
	env.Tag[0] ^= 0x01
	tampered, _ := json.Marshal(env)

	_, err = codec.Import("pw", tampered)
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("expected ErrIntegrity for tampered tag, got %v", err)
	}
}

func TestImportUnknownVersion(t *testing.T) {
	codec := testCodec()

	data, err := codec.Export("pw", testEntries())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var env Envelope
	json.Unmarshal(data, &env)
	env.Version = 99
	bumped, _ := json.Marshal(env)

	_, err = codec.Import("pw", bumped)
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for unknown version, got %v", err)
	}
}

func TestImportStructuralGarbage(t *testing.T) {
	codec := testCodec()

	for _, data := range []string{
		"not json at all",
		`{"version":1}`,
		`{"version":1,"kdf":{"salt":"AAAA","iterations":0}}`,
	} {
		_, err := codec.Import("pw", []byte(data))
		if !errors.Is(err, ErrFormat) {
			t.Errorf("input %q: expected ErrFormat, got %v", data, err)
		}
	}
}

func TestExportFreshSaltAndNonce(t *testing.T) {
	codec := testCodec()
	entries := testEntries()

	first, err := codec.Export("pw", entries)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	second, err := codec.Export("pw", entries)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var e1, e2 Envelope
	json.Unmarshal(first, &e1)
	json.Unmarshal(second, &e2)

	if string(e1.KDF.Salt) == string(e2.KDF.Salt) {
		t.Error("salt reused across exports")
	}
	if string(e1.Nonce) == string(e2.Nonce) {
		t.Error("nonce reused across exports")
	}
	if string(e1.Ciphertext) == string(e2.Ciphertext) {
		t.Error("identical ciphertext across exports")
	}
}

func TestEnvelopeShape(t *testing.T) {
	codec := testCodec()

	data, err := codec.Export("pw", testEntries())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if env.Version != Version {
		t.Errorf("version: %d", env.Version)
	}
	if len(env.KDF.Salt) < 16 {
		t.Errorf("salt length: %d", len(env.KDF.Salt))
	}
	if env.KDF.Iterations < MinIterations {
		t.Errorf("iterations: %d", env.KDF.Iterations)
	}
	if len(env.Nonce) != 12 {
		t.Errorf("nonce length: %d", len(env.Nonce))
	}
	if len(env.Tag) != 16 {
		t.Errorf("tag length: %d", len(env.Tag))
	}
}

func TestRoundTripEmptyCollection(t *testing.T) {
	codec := testCodec()

	data, err := codec.Export("pw", nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	restored, err := codec.Import("pw", data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(restored) != 0 {
		t.Errorf("expected empty collection, got %d", len(restored))
	}
}
