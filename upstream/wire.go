// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package upstream

// wireTokenResponse is the shape of both the client-credentials token
// endpoint and the username/password login endpoint.
type wireTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

type wireOrgRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wireSelfResponse struct {
	User struct {
		Organization struct {
			ID                 string   `json:"id"`
			Name               string   `json:"name"`
			SubOrganizationIDs []string `json:"subOrganizationIds"`
		} `json:"organization"`
		MemberOfOrganizations []wireOrgRef `json:"memberOfOrganizations"`
	} `json:"user"`
}

type wireEnvironmentsResponse struct {
	Data []struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Type         string `json:"type"`
		IsProduction bool   `json:"isProduction"`
	} `json:"data"`
}

type wireDestination struct {
	QueueID                  string `json:"queueId"`
	ExchangeID               string `json:"exchangeId"`
	QueueName                string `json:"queueName"`
	ExchangeName             string `json:"exchangeName"`
	Type                     string `json:"type"`
	FIFO                     bool   `json:"fifo"`
	DefaultTTL               int64  `json:"defaultTtl"`
	DefaultLockTTL           int64  `json:"defaultLockTtl"`
	MaxDeliveries            int    `json:"maxDeliveries"`
	DefaultDeadLetterQueueID string `json:"defaultDeadLetterQueueId"`
	Encrypted                bool   `json:"encrypted"`
}

func (w wireDestination) toDestination(envID, region string) Destination {
	switch w.Type {
	case "exchange":
		return Destination{
			ID:            w.ExchangeID,
			Name:          w.ExchangeName,
			Kind:          KindExchange,
			EnvironmentID: envID,
			Region:        region,
			Exchange:      &ExchangeAttributes{Encrypted: w.Encrypted},
		}
	default:
		return Destination{
			ID:            w.QueueID,
			Name:          w.QueueName,
			Kind:          KindQueue,
			EnvironmentID: envID,
			Region:        region,
			Queue: &QueueAttributes{
				FIFO:                  w.FIFO,
				DefaultTTLMillis:      w.DefaultTTL,
				MaxDeliveries:         w.MaxDeliveries,
				DeadLetterDestination: w.DefaultDeadLetterQueueID,
				Encrypted:             w.Encrypted,
			},
		}
	}
}
