package main

import (
	"crypto/rsa"
	"os"
	"strings"
	"time"

	"go-id-validator/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// AttestationCreator signs a validation verdict so downstream services
// can accept it without re-running the pipeline.
type AttestationCreator interface {
	CreateAttestation(verdict models.ValidationVerdict) (attestation string, err error)
}

func NewRsaAttestationCreator(privateKeyPath string, issuerId string) (*RsaAttestationCreator, error) {
	keyBytes, err := os.ReadFile(privateKeyPath)

	if err != nil {
		return nil, err
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)

	if err != nil {
		return nil, err
	}

	return &RsaAttestationCreator{
		issuerId:   issuerId,
		privateKey: privateKey,
	}, nil
}

type RsaAttestationCreator struct {
	privateKey *rsa.PrivateKey
	issuerId   string
}

const AttestationValidity = time.Hour

// CreateAttestation signs an RS256 JWT over the verdict. The subject is a
// masked ID number; the raw number never leaves the validation response.
func (ac *RsaAttestationCreator) CreateAttestation(verdict models.ValidationVerdict) (string, error) {
	now := time.Now()

	subject := ""
	if verdict.ExtractedData != nil {
		subject = MaskIdNumber(verdict.ExtractedData.IdNumber)
	}

	claims := jwt.MapClaims{
		"iss":           ac.issuerId,
		"sub":           subject,
		"jti":           uuid.NewString(),
		"iat":           now.Unix(),
		"exp":           now.Add(AttestationValidity).Unix(),
		"id_type":       string(verdict.IdType),
		"government_id": verdict.IsGovernmentId,
		"validated":     verdict.IsValid,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(ac.privateKey)
}

// MaskIdNumber hides all but the last four characters of an ID number
func MaskIdNumber(idNumber string) string {
	if len(idNumber) <= 4 {
		return idNumber
	}
	return strings.Repeat("*", len(idNumber)-4) + idNumber[len(idNumber)-4:]
}
