/*
Package npdsdk is a client for the self-employed ("NPD") tax service. It
authenticates a taxpayer, keeps the access token fresh, and registers income
on their behalf, returning the issued receipt.

# Client

A Client is one session for one taxpayer. Construct it empty and log in:

	client, err := npdsdk.New(npdsdk.Config{})
	profile, err := client.Auth(ctx, inn, password)

or let it log in by itself:

	client, err := npdsdk.New(npdsdk.Config{Autologin: true, Login: inn, Password: password})
	profile, err := client.WaitAuth(ctx)

or resume a session exported earlier with AuthInfo:

	info, err := client.AuthInfo() // persist this
	...
	client, err := npdsdk.New(npdsdk.Config{}, npdsdk.WithAuthInfo(info))

# Authentication Flows

Password:

	profile, err := client.Auth(ctx, inn, password)

SMS challenge, in two steps with the code entered out of band:

	challenge, err := client.RequestSMSCode(ctx, "79000000000")
	profile, err := client.AuthViaSMSCode(ctx, code, challenge.ChallengeToken, challenge.Phone)

# Automatic Token Renewal

Every authenticated call goes through Token, which:

 1. Reuses the access token if it stays valid for at least 60 seconds
 2. Otherwise renews it with the refresh token
 3. Fails with ErrNotAuthenticated when there is no refresh token

Logins, SMS verifications and renewals share a single in-flight slot. While
one is running, further callers wait on it and receive its result rather
than sending their own request. Failures leave the stored credentials as they
were.

# Registering Income

	res, err := client.AddIncome(ctx, npdsdk.SingleIncome{
		Name:     "Consulting",
		Quantity: 2,
		Amount:   150.555, // rounded to 150.56
	})
	fmt.Println(res.ApprovedReceiptUUID, res.PrintURL)

Several lines go on one receipt with MultipleIncome.

# Error Handling

  - *AuthError (errors.Is ErrAuthFailed): the service did not issue tokens
  - ErrNotAuthenticated: no credentials to call with
  - ErrIncompleteCredentials: AuthInfo before any login
  - *SubmissionError (errors.Is ErrSubmissionFailed): no receipt issued
  - *TransportError, *HTTPError: network, decoding and status failures

# Thread Safety

A Client is safe for concurrent use by multiple goroutines.
*/
package npdsdk
