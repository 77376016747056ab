package basesvc

import (
	"context"
	"fmt"

	"bid_flow/internal/common"
	"bid_flow/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelationshipCheck la mot phep kiem tra tham chieu: dem record trong collection dich theo field
type RelationshipCheck struct {
	CollectionName string
	FieldName      string
	ErrorMessage   string
	Optional       bool
}

// CheckRelationshipExists dem tham chieu toi recordID o tung collection trong checks,
// gap collection nao con record la dung lai va tra loi Conflict
func CheckRelationshipExists(ctx context.Context, recordID primitive.ObjectID, checks []RelationshipCheck) error {
	for _, check := range checks {
		collection, exists := global.RegistryCollections.Get(check.CollectionName)
		if !exists {
			if check.Optional {
				continue
			}
			return common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Collection '%s' chua dang ky trong registry, khong kiem tra duoc quan he", check.CollectionName),
				common.StatusInternalServerError,
				nil,
			)
		}
		filter := bson.M{check.FieldName: recordID}
		count, err := collection.CountDocuments(ctx, filter)
		if err != nil {
			return common.ConvertMongoError(err)
		}
		if count > 0 {
			errorMsg := check.ErrorMessage
			if errorMsg == "" {
				errorMsg = fmt.Sprintf("Khong the xoa: con %d ban ghi trong collection '%s' dang tro toi record nay", count, check.CollectionName)
			} else {
				errorMsg = fmt.Sprintf(check.ErrorMessage, count)
			}
			return common.NewError(common.ErrCodeBusinessOperation, errorMsg, common.StatusConflict, nil)
		}
	}
	return nil
}

// CheckRelationshipExistsWithFilter giong CheckRelationshipExists nhung caller tu dua filter
func CheckRelationshipExistsWithFilter(ctx context.Context, filter bson.M, checks []RelationshipCheck) error {
	for _, check := range checks {
		collection, exists := global.RegistryCollections.Get(check.CollectionName)
		if !exists {
			if check.Optional {
				continue
			}
			return common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Collection '%s' chua dang ky trong registry, khong kiem tra duoc quan he", check.CollectionName),
				common.StatusInternalServerError,
				nil,
			)
		}
		count, err := collection.CountDocuments(ctx, filter)
		if err != nil {
			return common.ConvertMongoError(err)
		}
		if count > 0 {
			errorMsg := check.ErrorMessage
			if errorMsg == "" {
				errorMsg = fmt.Sprintf("Khong the xoa: con %d ban ghi trong collection '%s' dang tro toi record nay", count, check.CollectionName)
			} else {
				errorMsg = fmt.Sprintf(check.ErrorMessage, count)
			}
			return common.NewError(common.ErrCodeBusinessOperation, errorMsg, common.StatusConflict, nil)
		}
	}
	return nil
}

// GetRelationshipCount dem rieng so record dang tro toi recordID trong mot collection
func GetRelationshipCount(ctx context.Context, recordID primitive.ObjectID, collectionName, fieldName string) (int64, error) {
	collection, exists := global.RegistryCollections.Get(collectionName)
	if !exists {
		return 0, common.NewError(common.ErrCodeInternalServer, fmt.Sprintf("Collection '%s' chua dang ky trong registry", collectionName), common.StatusInternalServerError, nil)
	}
	filter := bson.M{fieldName: recordID}
	return collection.CountDocuments(ctx, filter)
}

// ValidateBeforeDeletePortal kiem tra cac quan he cua Portal truoc khi xoa
func ValidateBeforeDeletePortal(ctx context.Context, portalID primitive.ObjectID) error {
	checks := []RelationshipCheck{
		{CollectionName: global.MongoDB_ColNames.Submissions, FieldName: "portalId", ErrorMessage: "Khong the xoa portal vi co %d submission dang su dung portal nay. Vui long xoa cac submission truoc."},
	}
	return CheckRelationshipExists(ctx, portalID, checks)
}

// ValidateBeforeDeleteOpportunity kiem tra cac quan he cua RfpOpportunity truoc khi xoa
func ValidateBeforeDeleteOpportunity(ctx context.Context, opportunityID primitive.ObjectID) error {
	checks := []RelationshipCheck{
		{CollectionName: global.MongoDB_ColNames.Proposals, FieldName: "opportunityId", ErrorMessage: "Khong the xoa opportunity vi co %d proposal dang tham chieu. Vui long xoa cac proposal truoc."},
		{CollectionName: global.MongoDB_ColNames.Submissions, FieldName: "opportunityId", ErrorMessage: "Khong the xoa opportunity vi co %d submission dang tham chieu. Vui long xoa cac submission truoc."},
	}
	return CheckRelationshipExists(ctx, opportunityID, checks)
}

// ValidateBeforeDeleteProposal kiem tra cac quan he cua Proposal truoc khi xoa
func ValidateBeforeDeleteProposal(ctx context.Context, proposalID primitive.ObjectID) error {
	checks := []RelationshipCheck{
		{CollectionName: global.MongoDB_ColNames.Submissions, FieldName: "proposalId", ErrorMessage: "Khong the xoa proposal vi co %d submission dang tham chieu. Vui long xoa cac submission truoc."},
	}
	return CheckRelationshipExists(ctx, proposalID, checks)
}

// ValidateBeforeDeleteSubmission kiem tra cac quan he cua Submission truoc khi xoa
func ValidateBeforeDeleteSubmission(ctx context.Context, submissionID primitive.ObjectID) error {
	checks := []RelationshipCheck{
		{CollectionName: global.MongoDB_ColNames.SubmissionPipelines, FieldName: "submissionId", ErrorMessage: "Khong the xoa submission vi co %d pipeline dang tham chieu. Vui long huy pipeline truoc."},
	}
	return CheckRelationshipExists(ctx, submissionID, checks)
}
