package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/leadpilot-crm/internal/attachments"
	appconfig "github.com/wolfman30/leadpilot-crm/internal/config"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

// BuildAttachmentStore returns a disabled store when ATTACHMENTS_BUCKET is
// unset; handlers answer 503 in that case.
func BuildAttachmentStore(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) *attachments.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || strings.TrimSpace(cfg.AttachmentsBucket) == "" {
		logger.Info("attachments disabled: ATTACHMENTS_BUCKET not set")
		return attachments.NewStore(nil, nil, "", 0, logger)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// LocalStack and MinIO need path-style addressing.
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	return attachments.NewStore(client, s3.NewPresignClient(client), cfg.AttachmentsBucket, cfg.AttachmentURLTTL, logger)
}
