// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package website implements the website_status check: an HTTP request
// whose status code and body are compared with expectations.
//
// A connection failure, timeout, TLS verification failure, unexpected
// status code or failed content check is an error. Redirects are followed
// (up to max_redirects) unless follow_redirects is false.
package website
