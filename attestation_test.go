package main

import (
	"testing"

	"go-id-validator/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func TestCreateAttestation(t *testing.T) {
	keyPath, key := writeTestPrivateKey(t)

	creator, err := NewRsaAttestationCreator(keyPath, "id-validator-test")
	require.NoError(t, err)

	verdict := models.ValidationVerdict{
		IsValid:        true,
		IdType:         models.IdTypeGovernment,
		IsGovernmentId: true,
		ExtractedData:  &models.ExtractedIdentity{IdNumber: "123456789"},
	}

	attestation, err := creator.CreateAttestation(verdict)
	require.NoError(t, err)
	require.NotEmpty(t, attestation)

	token, err := jwt.Parse(attestation, func(token *jwt.Token) (interface{}, error) {
		require.Equal(t, jwt.SigningMethodRS256.Alg(), token.Method.Alg())
		return &key.PublicKey, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "id-validator-test", claims["iss"])
	require.Equal(t, "*****6789", claims["sub"])
	require.Equal(t, "government", claims["id_type"])
	require.Equal(t, true, claims["government_id"])
	require.Equal(t, true, claims["validated"])
	require.NotEmpty(t, claims["jti"])
}

// Each attestation carries a fresh token id.
func TestCreateAttestationUniqueJti(t *testing.T) {
	keyPath, _ := writeTestPrivateKey(t)

	creator, err := NewRsaAttestationCreator(keyPath, "id-validator-test")
	require.NoError(t, err)

	verdict := models.ValidationVerdict{IsValid: true}

	first, err := creator.CreateAttestation(verdict)
	require.NoError(t, err)
	second, err := creator.CreateAttestation(verdict)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestNewRsaAttestationCreatorMissingKey(t *testing.T) {
	_, err := NewRsaAttestationCreator("/does/not/exist.pem", "issuer")
	require.Error(t, err)
}

func TestMaskIdNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"long number", "123456789", "*****6789"},
		{"exactly four", "1234", "1234"},
		{"shorter than four", "12", "12"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, MaskIdNumber(tt.input))
		})
	}
}
