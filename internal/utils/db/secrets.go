package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func retrieveCredentials(ctx context.Context, secretID string) (string, string, error) {
	if secretID == "" {
		return "", "", fmt.Errorf("credenciais do banco ausentes: defina DB_USERNAME/DB_PASSWORD ou DB_SECRET_ID")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", "", fmt.Errorf("carregar config AWS: %w", err)
	}
	client := secretsmanager.NewFromConfig(awsCfg)

	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", "", fmt.Errorf("ler segredo %s: %w", secretID, err)
	}

	return parseCredentials(aws.ToString(result.SecretString))
}

func parseCredentials(secretString string) (string, string, error) {
	var secret Credentials
	if err := json.Unmarshal([]byte(secretString), &secret); err != nil {
		return "", "", fmt.Errorf("segredo do banco mal formado: %w", err)
	}
	if secret.Username == "" || secret.Password == "" {
		return "", "", fmt.Errorf("segredo do banco sem username/password")
	}
	return secret.Username, secret.Password, nil
}
