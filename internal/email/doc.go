// Package email renders transactional templates and hands the result to a
// delivery backend: SendGrid, Amazon SES or plain SMTP.
package email
