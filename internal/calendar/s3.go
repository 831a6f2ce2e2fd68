package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
)

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	LinkTTL         time.Duration
}

type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Adapter publica o convite .ics num bucket e devolve um link assinado
// como link "rico" do agendamento.
type S3Adapter struct {
	objects   ObjectAPI
	presigner Presigner
	bucket    string
	linkTTL   time.Duration
	now       func() time.Time
}

func NewS3Client(cfg S3Config) *s3.Client {
	return s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		BaseEndpoint: endpoint(cfg.Endpoint),
		UsePathStyle: cfg.Endpoint != "",
	})
}

func endpoint(e string) *string {
	if e == "" {
		return nil
	}
	return aws.String(e)
}

func NewS3Adapter(client *s3.Client, cfg S3Config) *S3Adapter {
	return newS3Adapter(client, s3.NewPresignClient(client), cfg)
}

func newS3Adapter(objects ObjectAPI, presigner Presigner, cfg S3Config) *S3Adapter {
	ttl := cfg.LinkTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &S3Adapter{
		objects:   objects,
		presigner: presigner,
		bucket:    cfg.Bucket,
		linkTTL:   ttl,
		now:       time.Now,
	}
}

func inviteKey(appointmentID uint) string {
	return fmt.Sprintf("invites/appointment-%d.ics", appointmentID)
}

func (a *S3Adapter) CreateEvent(ctx context.Context, ev domain.CalendarEvent) (string, error) {
	key := inviteKey(ev.AppointmentID)

	if _, err := a.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(RenderICS(ev, a.now())),
		ContentType: aws.String("text/calendar; charset=utf-8"),
	}); err != nil {
		return "", fmt.Errorf("put invite %s: %w", key, err)
	}

	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(a.linkTTL))
	if err != nil {
		return "", fmt.Errorf("presign invite %s: %w", key, err)
	}

	return req.URL, nil
}

func (a *S3Adapter) CancelEvent(ctx context.Context, appointmentID uint) error {
	key := inviteKey(appointmentID)
	if _, err := a.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete invite %s: %w", key, err)
	}
	return nil
}

var _ domain.CalendarSync = (*S3Adapter)(nil)
