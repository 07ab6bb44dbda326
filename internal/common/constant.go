package common

// AuthorizationHeaderName is the HTTP header (and lower-cased gRPC metadata
// key) carrying the access token as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token inside the Authorization header.
const BearerPrefix = "Bearer "

// ContentTypeJSON is used for every REST request and response body.
const ContentTypeJSON = "application/json"
