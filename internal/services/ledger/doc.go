/*
Package ledger is the only writer of member points balances.

Every balance change goes through ApplyDelta (or ApplyDeltaTx inside a
caller's transaction), which in one database transaction:
  - applies the signed delta with a conditional update that can never take the
    balance below zero,
  - appends exactly one immutable ledger entry,
  - re-resolves the wallet's tier from the new balance unless an admin has
    locked it.

Side effects that must only happen once the change is durable (tier upgrade
notifications, cache invalidation, metrics) are collected in an Effects value
and fired after commit:

	fx := ledger.NewEffects()
	err := store.Transact(ctx, func(tx repositories.Store) error {
	    fx.Reset()
	    _, err := ledgerSvc.ApplyDeltaTx(ctx, tx, req, fx)
	    return err
	})
	if err == nil {
	    ledgerSvc.Fire(ctx, fx)
	}

Error Handling:

  - ErrInvalidAmount: zero delta, unknown kind or source
  - ErrWalletNotFound: the wallet does not exist
  - ErrInsufficientBalance: a debit larger than the balance
  - ErrWalletSuspended: purchases on a suspended wallet
*/
package ledger
