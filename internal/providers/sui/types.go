package sui

import (
	"encoding/json"
	"strconv"

	"github.com/nftbazaar/marketgate/internal/domain"
)

// ObjectDataOptions selects which projections of an object the RPC returns
type ObjectDataOptions struct {
	ShowType    bool `json:"showType,omitempty"`
	ShowOwner   bool `json:"showOwner,omitempty"`
	ShowContent bool `json:"showContent,omitempty"`
	ShowDisplay bool `json:"showDisplay,omitempty"`
}

// SharedOwner is the shared-object arm of the owner union
type SharedOwner struct {
	InitialSharedVersion uint64 `json:"initial_shared_version"`
}

// Owner is the ledger's object-owner union: held by an address, held by
// another object (escrow), shared, or immutable.
type Owner struct {
	AddressOwner string       `json:"AddressOwner,omitempty"`
	ObjectOwner  string       `json:"ObjectOwner,omitempty"`
	Shared       *SharedOwner `json:"Shared,omitempty"`
	Immutable    bool         `json:"-"`
}

// UnmarshalJSON accepts both the object form and the bare "Immutable" string
func (o *Owner) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Immutable = s == "Immutable"
		return nil
	}

	type ownerAlias Owner
	var alias ownerAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*o = Owner(alias)
	return nil
}

// Ref converts the owner union into the domain owner reference
func (o *Owner) Ref() domain.OwnerRef {
	switch {
	case o == nil:
		return domain.OwnerRef{}
	case o.AddressOwner != "":
		return domain.OwnerRef{Kind: domain.OwnerAddress, ID: o.AddressOwner}
	case o.ObjectOwner != "":
		return domain.OwnerRef{Kind: domain.OwnerObject, ID: o.ObjectOwner}
	case o.Shared != nil:
		return domain.OwnerRef{Kind: domain.OwnerShared}
	case o.Immutable:
		return domain.OwnerRef{Kind: domain.OwnerImmutable}
	default:
		return domain.OwnerRef{}
	}
}

// ObjectContent is the parsed Move struct content of an object
type ObjectContent struct {
	DataType string                 `json:"dataType"`
	Type     string                 `json:"type"`
	Fields   map[string]interface{} `json:"fields"`
}

// DisplayData carries the object's display-standard metadata
type DisplayData struct {
	Data map[string]string `json:"data,omitempty"`
}

// ObjectData is one object projection returned by the RPC
type ObjectData struct {
	ObjectID string         `json:"objectId"`
	Version  string         `json:"version,omitempty"`
	Digest   string         `json:"digest,omitempty"`
	Type     string         `json:"type,omitempty"`
	Owner    *Owner         `json:"owner,omitempty"`
	Content  *ObjectContent `json:"content,omitempty"`
	Display  *DisplayData   `json:"display,omitempty"`
}

// ObjectResponseError is the per-object error arm (deleted, not found, ...)
type ObjectResponseError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id,omitempty"`
}

// ObjectResponse is the data-or-error union returned per object
type ObjectResponse struct {
	Data  *ObjectData          `json:"data,omitempty"`
	Error *ObjectResponseError `json:"error,omitempty"`
}

// Live reports whether the response carries a live object with parsed content.
// Consumed (bought or cancelled) listings fail this check and are dropped.
func (r *ObjectResponse) Live() bool {
	return r != nil && r.Data != nil && r.Data.Content != nil
}

// ObjectPage is a page of object responses
type ObjectPage struct {
	Data        []ObjectResponse `json:"data"`
	NextCursor  string           `json:"nextCursor,omitempty"`
	HasNextPage bool             `json:"hasNextPage"`
}

// EventID identifies an event by transaction digest and per-transaction
// sequence number
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// Event is one emitted ledger event
type Event struct {
	ID          EventID                `json:"id"`
	PackageID   string                 `json:"packageId,omitempty"`
	Type        string                 `json:"type"`
	Sender      string                 `json:"sender,omitempty"`
	ParsedJSON  map[string]interface{} `json:"parsedJson"`
	TimestampMs string                 `json:"timestampMs,omitempty"`
}

// EventPage is a page of events
type EventPage struct {
	Data        []Event  `json:"data"`
	NextCursor  *EventID `json:"nextCursor,omitempty"`
	HasNextPage bool     `json:"hasNextPage"`
}

// ExecutionStatus is the success/failure arm of transaction effects
type ExecutionStatus struct {
	Status string `json:"status"` // "success" or "failure"
	Error  string `json:"error,omitempty"`
}

// ObjectRef references an object at a version
type ObjectRef struct {
	ObjectID string `json:"objectId"`
	Version  uint64 `json:"version,omitempty"`
	Digest   string `json:"digest,omitempty"`
}

// OwnedObjectRef is a created/mutated object reference in effects
type OwnedObjectRef struct {
	Owner     json.RawMessage `json:"owner,omitempty"`
	Reference ObjectRef       `json:"reference"`
}

// TransactionEffects is the effects projection of an executed transaction
type TransactionEffects struct {
	Status  ExecutionStatus  `json:"status"`
	Created []OwnedObjectRef `json:"created,omitempty"`
}

// TransactionBlock is a transaction fetched or executed through the RPC
type TransactionBlock struct {
	Digest      string              `json:"digest"`
	TimestampMs string              `json:"timestampMs,omitempty"`
	Effects     *TransactionEffects `json:"effects,omitempty"`
}

// TransactionBytes is an unsigned transaction built server-side, handed to
// the wallet for signing
type TransactionBytes struct {
	TxBytes string `json:"txBytes"`
}

// Balance is the coin balance of an address
type Balance struct {
	CoinType     string `json:"coinType"`
	TotalBalance string `json:"totalBalance"`
}

// FieldString extracts a string field from parsed Move content
func FieldString(fields map[string]interface{}, key string) string {
	if fields == nil {
		return ""
	}
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

// FieldUint64 extracts an unsigned integer field from parsed Move content.
// Move u64 values arrive as JSON strings; older nodes emit small values as
// numbers.
func FieldUint64(fields map[string]interface{}, key string) uint64 {
	if fields == nil {
		return 0
	}
	switch v := fields[key].(type) {
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case float64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	}
	return 0
}

// ExtractImageURL pulls the image URL out of asset content fields. Contracts
// store it as a plain `url` string, a nested `url.url` structure, or an
// `image_url` field.
func ExtractImageURL(fields map[string]interface{}) string {
	if fields == nil {
		return ""
	}
	if s, ok := fields["url"].(string); ok {
		return s
	}
	if nested, ok := fields["url"].(map[string]interface{}); ok {
		if s, ok := nested["url"].(string); ok {
			return s
		}
	}
	if s, ok := fields["image_url"].(string); ok {
		return s
	}
	return ""
}

// EmbeddedAssetFields digs the embedded asset struct out of listing content.
// Newer contracts embed the full asset under `nft`; the wrapper may carry the
// actual fields one level deeper under `fields`.
func EmbeddedAssetFields(listingFields map[string]interface{}) map[string]interface{} {
	if listingFields == nil {
		return nil
	}
	wrapper, ok := listingFields["nft"].(map[string]interface{})
	if !ok {
		return nil
	}
	if inner, ok := wrapper["fields"].(map[string]interface{}); ok {
		return inner
	}
	return wrapper
}

// EmbeddedAssetID extracts the asset object id from embedded asset fields,
// where `id` is either the id string or a `{id: "0x..."}` wrapper
func EmbeddedAssetID(assetFields map[string]interface{}) string {
	if assetFields == nil {
		return ""
	}
	switch id := assetFields["id"].(type) {
	case string:
		return id
	case map[string]interface{}:
		if s, ok := id["id"].(string); ok {
			return s
		}
	}
	return ""
}
