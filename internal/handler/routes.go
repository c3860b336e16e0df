package handler

// APIV1Prefix is the canonical base path for public HTTP API v1.
const APIV1Prefix = "/api/v1"

// UsersPath is mounted under APIV1Prefix; Location headers are built from it.
const UsersPath = "/users"
