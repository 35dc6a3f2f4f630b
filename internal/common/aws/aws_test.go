// internal/common/aws/aws_test.go
package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestSESClient_Send(t *testing.T) {
	api := &fakeSES{}
	client := NewSESClientWithAPI(api, "leads@example.com")

	id, err := client.Send(context.Background(), Email{
		To:      []string{"counsellor@example.com"},
		Subject: "New lead",
		Text:    "A new lead arrived",
	})

	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
	assert.Equal(t, "leads@example.com", aws.ToString(api.input.Source))
	assert.Equal(t, []string{"counsellor@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "A new lead arrived", aws.ToString(api.input.Message.Body.Text.Data))
	assert.Nil(t, api.input.Message.Body.Html)
}

func TestSESClient_SendErrors(t *testing.T) {
	_, err := NewSESClientWithAPI(&fakeSES{}, "from@example.com").Send(context.Background(), Email{Subject: "x"})
	assert.Error(t, err)

	_, err = NewSESClientWithAPI(&fakeSES{err: errors.New("throttled")}, "from@example.com").
		Send(context.Background(), Email{To: []string{"a@example.com"}, Text: "x"})
	assert.EqualError(t, err, "throttled")
}

func TestSNSClient_SendSMS(t *testing.T) {
	api := &fakeSNS{}
	client := NewSNSClientWithAPI(api, "STUDYAB")

	id, err := client.SendSMS(context.Background(), "+919876543210", "Thanks for taking the quiz")

	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "+919876543210", aws.ToString(api.input.PhoneNumber))
	assert.Equal(t, "STUDYAB", aws.ToString(api.input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
	assert.Equal(t, "Transactional", aws.ToString(api.input.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
}
