package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanAttachment stores metadata about a file a trainer attached to an
// assigned plan (e.g., an exported program sheet). The actual file resides
// in S3.
type PlanAttachment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AssignedPlanID primitive.ObjectID `bson:"assignedPlanId" json:"assignedPlanId"` // Link back to the assigned plan
	TrainerID      primitive.ObjectID `bson:"trainerId" json:"trainerId"`           // Who uploaded it
	ClientID       primitive.ObjectID `bson:"clientId" json:"clientId"`             // Denormalized for client-side reads
	S3ObjectKey    string             `bson:"s3ObjectKey" json:"-"`                 // The unique key in the S3 bucket - internal use
	FileName       string             `bson:"fileName" json:"fileName"`
	ContentType    string             `bson:"contentType" json:"contentType"`
	Size           int64              `bson:"size" json:"size"`
	UploadedAt     time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
