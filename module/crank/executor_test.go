package crank

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module"
	"github.com/savings-vault/vault-cranker/module/cluster"
	"github.com/savings-vault/vault-cranker/module/metrics"
	mockmodule "github.com/savings-vault/vault-cranker/module/mock"
	"github.com/savings-vault/vault-cranker/module/signer"
	"github.com/savings-vault/vault-cranker/utils/unittest"
)

type ExecutorSuite struct {
	suite.Suite

	client     *mockmodule.LedgerClient
	signer     *signer.Local
	identifier *cluster.Identifier
	blockhash  solana.Hash
	signature  solana.Signature
	submitted  *solana.Transaction
}

func TestExecutor(t *testing.T) {
	suite.Run(t, new(ExecutorSuite))
}

func (s *ExecutorSuite) SetupTest() {
	s.client = mockmodule.NewLedgerClient(s.T())
	s.signer = unittest.SignerFixture(s.T())
	s.blockhash = unittest.HashFixture()
	s.signature = unittest.SignatureFixture()
	s.submitted = nil

	var err error
	s.identifier, err = cluster.NewIdentifier(unittest.Logger(), cluster.DefaultCacheSize)
	s.Require().NoError(err)
}

func (s *ExecutorSuite) executor(config Config) *Executor {
	return NewExecutor(
		unittest.Logger(),
		s.client,
		s.signer,
		NewBuilder(unittest.SavingsVaultProgram, DefaultComputeUnitLimit),
		s.identifier,
		metrics.NewNoopCollector(),
		config,
	)
}

// expectSubmission sets up the mock to accept the crank transaction.
func (s *ExecutorSuite) expectSubmission() {
	s.client.On("GetLatestBlockhash", mock.Anything, solana.CommitmentFinalized).Return(s.blockhash, nil).Once()
	s.client.
		On("SendTransaction", mock.Anything, mock.AnythingOfType("*solana.Transaction"), mock.Anything).
		Run(func(args mock.Arguments) {
			s.submitted = args.Get(1).(*solana.Transaction)
			opts := args.Get(2).(solana.SendOptions)
			s.Assert().Equal(solana.CommitmentProcessed, opts.PreflightCommitment)
		}).
		Return(s.signature, nil).
		Once()
}

func (s *ExecutorSuite) expectVault(exists bool, err error) {
	s.client.On("AccountExists", mock.Anything, unittest.DevnetSavingsVault, solana.CommitmentProcessed).Return(exists, err).Once()
}

func (s *ExecutorSuite) expectGenesis(genesis solana.Hash, err error) {
	s.client.On("Endpoint").Return("https://rpc.test")
	s.client.On("GetGenesisHash", mock.Anything).Return(genesis, err).Once()
}

// TestSuccess verifies that a submitted crank succeeds when the vault exists afterwards.
func (s *ExecutorSuite) TestSuccess() {
	s.expectSubmission()
	s.expectVault(true, nil)

	err := s.executor(Config{}).Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset)
	s.Require().NoError(err)

	// the submitted transaction is signed by the cranker and carries both instructions
	tx := s.submitted
	s.Require().NotNil(tx)
	s.Require().Len(tx.Signatures, 1)
	s.Assert().Equal(s.blockhash, tx.Message.RecentBlockhash)
	s.Assert().Equal(s.signer.Identity(), tx.Message.AccountKeys[0])
	s.Require().Len(tx.Message.Instructions, 2)

	payload, err := tx.Message.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().True(ed25519.Verify(s.signer.Identity().Bytes(), payload, tx.Signatures[0][:]))

	accrue := tx.Message.Instructions[1]
	s.Assert().Equal(unittest.SavingsVaultProgram, tx.Message.AccountKeys[accrue.ProgramIDIndex])
	s.Assert().Equal(AccrueInterestDiscriminator[:], accrue.Data)
	s.Require().Len(accrue.Accounts, 9)
	s.Assert().Equal(unittest.DevnetSavingsVault, tx.Message.AccountKeys[accrue.Accounts[3]])
}

// TestVaultNotFound verifies the diagnostic of a missing vault names the vault and the identified cluster.
func (s *ExecutorSuite) TestVaultNotFound() {
	s.expectSubmission()
	s.expectVault(false, nil)
	s.expectGenesis(solana.DevnetGenesisHash, nil)

	err := s.executor(Config{}).Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset)
	s.Require().Error(err)
	s.Assert().True(IsVaultNotFoundError(err))
	s.Assert().False(IsSubmissionFailedError(err))
	s.Assert().Equal("savings vault account EoCfwVzKyX5MwfrYo9HZmUHXkz8ru6D1KHTvxVZy8LwY does not exist on cluster devnet", err.Error())

	var notFound VaultNotFoundError
	s.Require().ErrorAs(err, &notFound)
	s.Assert().Equal(unittest.DevnetSavingsVault, notFound.Vault)
	s.Assert().Equal(solana.NetworkTest, notFound.Network)
}

// TestVaultLookupFailed verifies that a failed vault lookup is treated as a missing vault.
func (s *ExecutorSuite) TestVaultLookupFailed() {
	lookupErr := errors.New("connection reset")
	s.expectSubmission()
	s.expectVault(false, lookupErr)
	s.expectGenesis(solana.MainnetGenesisHash, nil)

	err := s.executor(Config{}).Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset)
	s.Require().Error(err)
	s.Assert().True(IsVaultNotFoundError(err))
	s.Assert().ErrorIs(err, lookupErr)
	s.Assert().Contains(err.Error(), "on cluster mainnet-beta")
}

// TestVaultNotFound_UnreachableCluster verifies that the cluster label defaults to production
// when the cluster cannot be identified.
func (s *ExecutorSuite) TestVaultNotFound_UnreachableCluster() {
	s.expectSubmission()
	s.expectVault(false, nil)
	s.expectGenesis(solana.Hash{}, errors.New("timeout"))

	err := s.executor(Config{}).Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset)
	s.Require().Error(err)
	s.Assert().True(IsVaultNotFoundError(err))
	s.Assert().Contains(err.Error(), unittest.DevnetSavingsVault.String())
	s.Assert().Contains(err.Error(), "on cluster mainnet-beta")
}

// TestSubmissionFailed verifies that a failed submission is reported and the vault is not checked.
func (s *ExecutorSuite) TestSubmissionFailed() {
	sendErr := errors.New("blockhash not found")
	s.client.On("GetLatestBlockhash", mock.Anything, solana.CommitmentFinalized).Return(s.blockhash, nil).Once()
	s.client.On("SendTransaction", mock.Anything, mock.Anything, mock.Anything).Return(solana.Signature{}, sendErr).Once()

	err := s.executor(Config{}).Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset)
	s.Require().Error(err)
	s.Assert().True(IsSubmissionFailedError(err))
	s.Assert().ErrorIs(err, sendErr)
	s.client.AssertNotCalled(s.T(), "AccountExists", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ExecutorSuite) TestBlockhashUnavailable() {
	s.client.On("GetLatestBlockhash", mock.Anything, solana.CommitmentFinalized).Return(solana.Hash{}, context.DeadlineExceeded).Once()

	err := s.executor(Config{}).Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset)
	s.Require().Error(err)
	s.Assert().True(IsSubmissionFailedError(err))
	s.Assert().ErrorIs(err, context.DeadlineExceeded)
}

// TestConfirmation verifies that the executor waits for the transaction to be processed before
// checking the vault.
func (s *ExecutorSuite) TestConfirmation() {
	s.expectSubmission()
	s.client.On("GetSignatureStatus", mock.Anything, s.signature).Return(nil, nil).Once()
	s.client.On("GetSignatureStatus", mock.Anything, s.signature).Return(nil, errors.New("unavailable")).Once()
	s.client.On("GetSignatureStatus", mock.Anything, s.signature).Return(&solana.SignatureStatus{
		Slot:               100,
		ConfirmationStatus: solana.CommitmentProcessed,
	}, nil).Once()
	s.expectVault(true, nil)

	config := Config{ConfirmTimeout: 5 * time.Second, ConfirmPollInterval: 10 * time.Millisecond}
	unittest.AssertReturnsBefore(s.T(), func() {
		err := s.executor(config).Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset)
		s.Require().NoError(err)
	}, time.Second)
}

// TestConfirmation_TransactionFailed verifies that an on-chain failure is reported as submission failure.
func (s *ExecutorSuite) TestConfirmation_TransactionFailed() {
	s.expectSubmission()
	s.client.On("GetSignatureStatus", mock.Anything, s.signature).Return(&solana.SignatureStatus{
		Slot:               100,
		Err:                json.RawMessage(`{"InstructionError":[1,{"Custom":6000}]}`),
		ConfirmationStatus: solana.CommitmentConfirmed,
	}, nil).Once()

	config := Config{ConfirmTimeout: 5 * time.Second, ConfirmPollInterval: 10 * time.Millisecond}
	err := s.executor(config).Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset)
	s.Require().Error(err)
	s.Assert().True(IsSubmissionFailedError(err))
	s.Assert().Contains(err.Error(), "Custom")
	s.client.AssertNotCalled(s.T(), "AccountExists", mock.Anything, mock.Anything, mock.Anything)
}

// TestConfirmation_Timeout verifies that the vault is checked even if the transaction was not
// seen before the confirmation timeout.
func (s *ExecutorSuite) TestConfirmation_Timeout() {
	s.expectSubmission()
	s.client.On("GetSignatureStatus", mock.Anything, s.signature).Return(nil, nil)
	s.expectVault(true, nil)

	config := Config{ConfirmTimeout: 50 * time.Millisecond, ConfirmPollInterval: 10 * time.Millisecond}
	unittest.AssertReturnsBefore(s.T(), func() {
		err := s.executor(config).Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset)
		s.Require().NoError(err)
	}, time.Second)
}

// TestConfirmation_Cancelled verifies that cancelling the context aborts waiting for confirmation.
func (s *ExecutorSuite) TestConfirmation_Cancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	s.expectSubmission()
	s.client.On("GetSignatureStatus", mock.Anything, s.signature).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, nil)

	config := Config{ConfirmTimeout: time.Minute, ConfirmPollInterval: 10 * time.Millisecond}
	unittest.AssertReturnsBefore(s.T(), func() {
		err := s.executor(config).Execute(ctx, unittest.DevnetWallet, unittest.DevnetAsset)
		s.Require().ErrorIs(err, context.Canceled)
	}, time.Second)
	s.client.AssertNotCalled(s.T(), "AccountExists", mock.Anything, mock.Anything, mock.Anything)
}

// TestVaultCheck_Cancelled verifies that a vault check interrupted by shutdown is not reported as a missing vault.
func (s *ExecutorSuite) TestVaultCheck_Cancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	s.expectSubmission()
	s.client.On("AccountExists", mock.Anything, unittest.DevnetSavingsVault, solana.CommitmentProcessed).
		Run(func(mock.Arguments) { cancel() }).
		Return(false, context.Canceled).
		Once()

	err := s.executor(Config{}).Execute(ctx, unittest.DevnetWallet, unittest.DevnetAsset)
	s.Require().ErrorIs(err, context.Canceled)
	s.Assert().False(IsVaultNotFoundError(err))
	s.Assert().Equal(module.CrankOutcomeError, outcome(err))
	s.client.AssertNotCalled(s.T(), "GetGenesisHash", mock.Anything)
}

// TestExecutor_Metrics verifies that the outcome of every attempt is reported.
func TestExecutor_Metrics(t *testing.T) {
	client := mockmodule.NewLedgerClient(t)
	collector := mockmodule.NewCrankerMetrics(t)
	identifier, err := cluster.NewIdentifier(unittest.Logger(), cluster.DefaultCacheSize)
	require.NoError(t, err)

	executor := NewExecutor(
		unittest.Logger(),
		client,
		unittest.SignerFixture(t),
		NewBuilder(unittest.SavingsVaultProgram, DefaultComputeUnitLimit),
		identifier,
		collector,
		Config{},
	)

	client.On("GetLatestBlockhash", mock.Anything, mock.Anything).Return(unittest.HashFixture(), nil)
	client.On("SendTransaction", mock.Anything, mock.Anything, mock.Anything).Return(unittest.SignatureFixture(), nil)
	client.On("AccountExists", mock.Anything, unittest.DevnetSavingsVault, solana.CommitmentProcessed).Return(true, nil).Once()
	client.On("AccountExists", mock.Anything, unittest.DevnetSavingsVault, solana.CommitmentProcessed).Return(false, nil).Once()
	client.On("Endpoint").Return("https://rpc.test")
	client.On("GetGenesisHash", mock.Anything).Return(solana.DevnetGenesisHash, nil).Once()

	collector.On("CrankCompleted", unittest.DevnetWallet, unittest.DevnetAsset, module.CrankOutcomeSuccess, mock.Anything).Once()
	collector.On("CrankCompleted", unittest.DevnetWallet, unittest.DevnetAsset, module.CrankOutcomeVaultNotFound, mock.Anything).Once()
	collector.On("ClusterIdentified", solana.NetworkTest).Once()

	assert.NoError(t, executor.Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset))
	assert.True(t, IsVaultNotFoundError(executor.Execute(context.Background(), unittest.DevnetWallet, unittest.DevnetAsset)))
}
